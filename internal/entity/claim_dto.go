package entity

// AdjudicateClaimRequest adjudicates line items against inline policy terms
type AdjudicateClaimRequest struct {
	LineItems []BillLineItem `json:"line_items"`
	Policy    PolicyTerms    `json:"policy"`
}

// EstimateClaimRequest adjudicates line items against a stored policy
type EstimateClaimRequest struct {
	PolicyNumber string         `json:"policy_number"`
	LineItems    []BillLineItem `json:"line_items"`
}

// EstimateClaimResponse pairs the coverage breakdown with the policy it
// was computed from
type EstimateClaimResponse struct {
	PolicyNumber     string         `json:"policy_number"`
	PolicyholderName string         `json:"policyholder_name"`
	Coverage         CoverageResult `json:"coverage"`
}
