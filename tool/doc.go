// Package tool registers the functions a tool-calling model may invoke.
//
// Define tool arguments as a struct with tags and bind a typed handler:
//
//	type SearchArgs struct {
//	    Query string `json:"query" desc:"Company name or part of it" required:"true"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Envelope("search_companies", "Search companies by name",
//	        func(ctx context.Context, args SearchArgs) ([]records.Company, error) {
//	            return repo.SearchCompanies(ctx, args.Query)
//	        }),
//	)
//
// # Result Envelope
//
// Envelope handlers always answer with a JSON object:
//
//	{"success": true, "data": ...}
//	{"success": false, "error": "..."}
//
// so the model can tell failures from empty results and recover.
//
// # Supported Struct Tags
//
//	json:"name"      - Property name
//	desc:"text"      - Description for the model
//	required:"true"  - Mark field as required
//	enum:"a,b,c"     - Allowed values (comma-separated)
//	format:"email"   - String format
package tool
