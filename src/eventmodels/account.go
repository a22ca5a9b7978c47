package eventmodels

// Account identifies one brokerage account. Key is the opaque identifier the
// provider expects in portfolio requests.
type Account struct {
	ID  string
	Key string
}

// Suffix returns the trailing four characters of the account id, or the whole id
// when it is shorter.
func (a Account) Suffix() string {
	return LastDigits(a.ID, 4)
}

func LastDigits(id string, n int) string {
	if len(id) <= n {
		return id
	}

	return id[len(id)-n:]
}
