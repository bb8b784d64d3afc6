package scenario

// schemaJSON is the structural contract for scenario files. Semantic rules
// that JSON Schema cannot express (unique positions, owners within the
// roster) live in Validate.
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "players", "planets"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "game_duration_sec": {"type": "number", "exclusiveMinimum": 0},
    "players": {
      "type": "array",
      "minItems": 2,
      "items": {"type": "integer", "minimum": 1}
    },
    "planets": {
      "type": "array",
      "minItems": 2,
      "items": {
        "type": "object",
        "required": ["id", "x", "y", "size"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "x": {"type": "number"},
          "y": {"type": "number"},
          "size": {"type": "number", "exclusiveMinimum": 0},
          "troops": {"type": "number", "minimum": 0, "maximum": 999},
          "owner": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`
