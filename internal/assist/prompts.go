package assist

const generatePrompt = `You are an expert TypeScript and MongoDB schema designer. Generate a comprehensive DTO schema based on the user's requirements.

Return a JSON object with the following structure:
{
  "name": "SchemaName",
  "fields": [
    {
      "id": "unique_id",
      "name": "fieldName",
      "type": "string|number|boolean|Date|ObjectId|array|object|enum|mixed|Buffer|Map|Decimal128",
      "required": true|false,
      "unique": true|false,
      "index": true|false,
      "description": "Field description",
      "default": "default value if any",
      "ref": "Reference model if ObjectId",
      "arrayType": "type if array",
      "nestedFields": [...] // if object or array of objects,
      "enum": [{"key": "KEY", "value": "value"}] // if enum type,
      "validation": [{"type": "min|max|minLength|maxLength", "value": number|string}]
    }
  ],
  "imports": [],
  "enums": [],
  "indexes": [],
  "options": {
    "timestamps": true,
    "versionKey": false,
    "strict": true,
    "validateBeforeSave": true,
    "autoIndex": true
  },
  "hooks": {"pre": [], "post": []},
  "virtuals": [],
  "methods": [],
  "statics": []
}

Guidelines:
- Use appropriate field types for the use case
- Add comprehensive validation rules
- Include proper relationships with ObjectId references
- Add indexes for frequently queried fields
- Use descriptive field names and descriptions
- Include nested objects where appropriate
- Add enums for predefined values
- Consider performance and best practices

Generate a DTO schema for: `

const improvePrompt = `You are an expert TypeScript and MongoDB schema designer. Analyze the provided schema and improve it by:

1. Adding missing fields that would be common for this type of schema
2. Optimizing field types and constraints
3. Adding appropriate validation rules
4. Suggesting indexes for performance
5. Adding documentation and examples
6. Implementing best practices
7. Adding relationships where appropriate

Return the improved schema in the same JSON format as provided, but enhanced.

Improve this schema:
`

const validationsPrompt = `You are an expert in data validation and MongoDB schema design. Analyze the provided schema and add comprehensive validation rules for each field based on:

1. Field type and purpose
2. Common validation patterns
3. Security best practices
4. Data integrity requirements
5. Business logic constraints

Add validation rules like min/max values, string length limits, regex patterns, custom validators, etc.
Return the schema with enhanced validation rules in the same JSON format.

Add comprehensive validation rules to this schema:
`
