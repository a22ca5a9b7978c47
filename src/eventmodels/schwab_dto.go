package eventmodels

import "encoding/json"

// SchwabAccountDetailsDTO is the account-details response with positions requested.
// Positions are kept raw so that one malformed entry cannot fail the whole decode.
type SchwabAccountDetailsDTO struct {
	SecuritiesAccount struct {
		AccountNumber string            `json:"accountNumber"`
		Positions     []json.RawMessage `json:"positions"`
	} `json:"securitiesAccount"`
}

func (dto SchwabAccountDetailsDTO) ToRecords() []ProviderRecord {
	records := make([]ProviderRecord, 0, len(dto.SecuritiesAccount.Positions))
	for _, raw := range dto.SecuritiesAccount.Positions {
		records = append(records, NewSchwabRecord(raw))
	}

	return records
}
