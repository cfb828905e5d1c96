package workflow

// DocType identifies a supported document category.
type DocType string

// The canonical document-type set. Routing, intake, and extraction refuse to
// run for any value outside this set.
const (
	DocTypeHealthClaim    DocType = "health_insurance_claim_form"
	DocTypeLifeClaim      DocType = "life_insurance_claim_form"
	DocTypeMotorClaim     DocType = "motor_insurance_claim_form"
	DocTypeIDProof        DocType = "id_proof"
	DocTypePolicyDocument DocType = "policy_document"
	DocTypePaymentReceipt DocType = "payment_receipt"
)

var canonicalDocTypes = map[DocType]bool{
	DocTypeHealthClaim:    true,
	DocTypeLifeClaim:      true,
	DocTypeMotorClaim:     true,
	DocTypeIDProof:        true,
	DocTypePolicyDocument: true,
	DocTypePaymentReceipt: true,
}

// Canonical reports whether the value belongs to the closed document-type set.
func (d DocType) Canonical() bool {
	return canonicalDocTypes[d]
}

// DocTypes returns the canonical set in declaration order.
func DocTypes() []DocType {
	return []DocType{
		DocTypeHealthClaim,
		DocTypeLifeClaim,
		DocTypeMotorClaim,
		DocTypeIDProof,
		DocTypePolicyDocument,
		DocTypePaymentReceipt,
	}
}
