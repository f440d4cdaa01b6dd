package agent

// metadataKeys are schema fields models sometimes hallucinate into tool
// arguments. They are never legitimate argument names for the gateway's
// tools, so they are stripped unconditionally.
var metadataKeys = map[string]struct{}{
	"inputSchema":  {},
	"name":         {},
	"parameters":   {},
	"title":        {},
	"description":  {},
	"outputSchema": {},
	"icons":        {},
	"_meta":        {},
	"annotations":  {},
	"required":     {},
}

// SanitizeArgs returns a copy of args with schema-metadata keys and
// null-valued keys removed. The input map is not modified.
func SanitizeArgs(args map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(args))
	for k, v := range args {
		if _, junk := metadataKeys[k]; junk {
			continue
		}
		if v == nil {
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}
