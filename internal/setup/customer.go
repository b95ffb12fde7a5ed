package setup

// CustomerID returns the account customer identifier of a brand user.
func CustomerID(brandCode, userID string) string {
	return brandCode + "-" + userID
}
