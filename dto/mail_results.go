package dto

// ConnectionTestResult reports both legs of a dual connection test. The leg
// flags are never collapsed into each other; Success is their conjunction.
type ConnectionTestResult struct {
	Success   bool     `json:"success"`
	ReceiveOk bool     `json:"receiveOk"`
	SendOk    bool     `json:"sendOk"`
	Errors    []string `json:"errors"`
}
