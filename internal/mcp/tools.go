package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools exposes every handler method as an MCP tool. Input schemas
// are inferred from the parameter structs.
func registerTools(server *sdkmcp.Server, h *Handler) {
	// Students
	addTool[GetStudentsParams](server, h, "get_students",
		"List every student, or fetch one by id. Rows with a malformed CGPA are returned with cgpa 0.")
	addTool[StudentParams](server, h, "add_student",
		"Add a student. The id and email must be unused; cgpa must be between 0 and 10.")
	addTool[StudentParams](server, h, "update_student",
		"Replace the fields of an existing student, found by id.")

	// Companies
	addTool[GetCompaniesParams](server, h, "get_companies",
		"List every company, or fetch one by id.")
	addTool[CompanyParams](server, h, "add_company",
		"Add a company. Its distribution sheet must exist under the same name as the id.")
	addTool[CompanyParams](server, h, "update_company",
		"Replace the fields of an existing company, found by id.")

	// Placements
	addTool[GetPlacementsParams](server, h, "get_placements",
		"List placements with student and company names resolved.")
	addTool[PlacementParams](server, h, "add_placement",
		"Record a placement for an existing student and company. The id is assigned when omitted.")
	addTool[PlacementParams](server, h, "update_placement",
		"Replace the fields of an existing placement, found by id.")

	// Distribution
	addTool[DistributeParams](server, h, "distribute_data_to_companies",
		"Append the given students to each company's sheet, one company at a time. A failing company does not stop the others; the result reports success/total.")
	addTool[AutoDistributeParams](server, h, "auto_distribute_to_eligible_companies",
		"Send one student to every active company with open positions whose minimum CGPA and departments they meet. Nothing is written when none match.")
	addTool[BulkImportParams](server, h, "bulk_import_students",
		"Validate and append many students in chunks of 100, then auto-distribute each imported active student. Stops at the first failing chunk.")
	addTool[ExportParams](server, h, "export_for_company",
		"Export the students meeting a company's minimum CGPA as csv or json.")

	// Activity
	addTool[GetRecentActivityParams](server, h, "get_recent_activity",
		"List recent reads, writes, distributions and imports, newest first.")
	addTool[GetStatsParams](server, h, "get_stats",
		"Report gateway cache, retry and call counters plus distribution totals.")
}

func addTool[In any](server *sdkmcp.Server, h *Handler, name, description string) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			params, err := json.Marshal(in)
			if err != nil {
				return nil, nil, fmt.Errorf("encoding %s arguments: %w", name, err)
			}
			out, err := h.Handle(ctx, getOperator(ctx), name, params)
			if err != nil {
				return errorResult(err), nil, nil
			}
			res, err := textResult(out)
			return res, nil, err
		})
}

func textResult(v any) (*sdkmcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func errorResult(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: "INTERNAL", Message: err.Error()}
	}
	data, mErr := json.MarshalIndent(apiErr, "", "  ")
	if mErr != nil {
		data = []byte(apiErr.Message)
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
