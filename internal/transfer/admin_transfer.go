package transfer

type AdminMetrics struct {
	TotalUsers    int64   `json:"totalUsers"`
	TotalLogins   int64   `json:"totalLogins"`
	TotalPayments float64 `json:"totalPayments"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type PaymentMethodRequest struct {
	Type      string  `json:"type"`
	Last4     *string `json:"last4"`
	Expiry    *string `json:"expiry"`
	Email     *string `json:"email"`
	UpiID     *string `json:"upi_id"`
	IsDefault bool    `json:"is_default"`
}

type TemplateInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
