package mongostore

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// parseSubmission converts a raw document into a Submission. Malformed
// pieces degrade to their zero values instead of failing the document.
func parseSubmission(doc bson.M) types.Submission {
	sub := types.Submission{ID: documentID(doc)}

	if dealID, ok := asInt(doc["dealId"]); ok {
		sub.DealID = dealID
	}

	data, _ := doc["data"].(bson.M)
	if data == nil {
		return sub
	}

	sub.PrimaryCompany = parseCompany(data["primaryCompany"])
	sub.AdditionalCompanies = parseCompanies(data["additionalCompanies"])
	return sub
}

// documentID renders the _id field, whatever its BSON type.
func documentID(doc bson.M) string {
	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return ""
	}
}

// parseCompany reads one company object. Returns nil when the name is
// missing or blank.
func parseCompany(raw any) *types.CompanyRef {
	m, ok := raw.(bson.M)
	if !ok {
		return nil
	}

	name, _ := m["companyLegalName"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	ref := &types.CompanyRef{Name: name}
	if headcount, ok := asInt(m["w2EmployeeCount"]); ok {
		ref.Headcount = headcount
	}
	return ref
}

// parseCompanies reads the additional companies array, dropping entries
// that are not objects or have no name.
func parseCompanies(raw any) []types.CompanyRef {
	arr, ok := raw.(bson.A)
	if !ok {
		return nil
	}

	companies := make([]types.CompanyRef, 0, len(arr))
	for _, entry := range arr {
		if ref := parseCompany(entry); ref != nil {
			companies = append(companies, *ref)
		}
	}
	if len(companies) == 0 {
		return nil
	}
	return companies
}

// asInt coerces the numeric shapes MongoDB may hand back, plus numeric
// strings, into an int.
func asInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
