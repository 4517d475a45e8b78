package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `placement-desk keeps a college placement cell's records in a spreadsheet and sends student data to company sheets.

Sheets:
- Students: one row per student, keyed by id (e.g. CS-2023-001).
- Companies: one row per recruiter, keyed by id (e.g. COMP-001). Each company also has its own sheet named after its id.
- Placements: one row per application, keyed by id (e.g. PL-001).

Workflow:
1) Look before writing: get_students, get_companies, get_placements. Reads are cached for 5 minutes and refreshed after any write.
2) Match: auto_distribute_to_eligible_companies sends a student to every active company with open positions whose minimum CGPA and departments the student meets.
3) Send explicitly: distribute_data_to_companies contacts companies one at a time. Read the success/total summary and the per-company outcomes; a failure for one company does not undo the others.
4) Import many: bulk_import_students writes in chunks of 100. If it stops, details.processed says how many rows were written.
5) Audit: get_recent_activity and get_stats.

Docs:
- placement://docs/index
- placement://docs/eligibility
- placement://docs/errors
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "placement://docs/index",
		Name:        "docs_index",
		Title:       "placement-desk docs index",
		Description: "Entry point: the sheets, the tools and where to read more.",
		Content: `# placement-desk

## Sheets

| Sheet | Key | Columns |
|-------|-----|---------|
| Students | Student ID | id, name, email, phone, department, year, cgpa, skills, status, date added |
| Companies | Company ID | id, name, industry, location, HR contact, package, positions, min cgpa, status, eligible departments |
| Placements | Placement ID | id, student, company, position, application date, status, package, interview date, notes |
| COMP-### | none | student columns, date sent, review status |

## Tools

- Records: get_/add_/update_ students, companies and placements.
- Distribution: distribute_data_to_companies, auto_distribute_to_eligible_companies.
- Bulk: bulk_import_students, export_for_company.
- Audit: get_recent_activity, get_stats.
`,
	},
	{
		URI:         "placement://docs/eligibility",
		Name:        "docs_eligibility",
		Title:       "Eligibility rules",
		Description: "When a student qualifies for a company.",
		Content: `# Eligibility

A student is eligible for a company when all of these hold:

1. The company status is Active.
2. The company has at least one open position.
3. The student's CGPA is at least the company's minimum. Equal counts.
4. The company lists no departments, or lists the student's department.

A student row with an unreadable CGPA is treated as 0 and is skipped by bulk auto-distribution.
`,
	},
	{
		URI:         "placement://docs/errors",
		Name:        "docs_errors",
		Title:       "Error codes",
		Description: "Tool error codes and what to do about each.",
		Content: `# Error codes

| Code | Meaning | Next step |
|------|---------|-----------|
| VALIDATION_FAILED | A field is missing or malformed | Fix the named field |
| NOT_FOUND | No row has that id | Check the id |
| CONFLICT | Id or email already used | Update instead of add |
| UNKNOWN_REFERENCE | Placement names a missing student or company | Add it first |
| REMOTE_REJECTED | The spreadsheet refused the call | Check sheet names and sharing |
| REMOTE_WRITE_FAILED | A write failed after retries | Retry later |
| TRANSPORT_FAILED | The spreadsheet service was unreachable | Retry later |
| INTERRUPTED | A run stopped part way | Read details for what completed |

Transport failures are retried three times with a growing delay before they surface.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
