package model

// Consumer is the party a bill is charged to.
type Consumer struct {
	Name       string `json:"name" yaml:"name"`
	Email      string `json:"email" yaml:"email"`
	Phone      string `json:"phone" yaml:"phone"`
	ID         int    `json:"id" yaml:"id"`
	LocationID int    `json:"locationId,omitempty" yaml:"locationId,omitempty"`
}

// Receiver is the party a bill is paid to.
type Receiver struct {
	Name          string `json:"name" yaml:"name"`
	AccountNumber string `json:"accountNumber" yaml:"accountNumber"`
	BankName      string `json:"bankName" yaml:"bankName"`
	ID            int    `json:"id" yaml:"id"`
}

// Location is a branch or site bills and consumers are attached to.
type Location struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
	City    string `json:"city" yaml:"city"`
	Country string `json:"country" yaml:"country"`
	ID      int    `json:"id" yaml:"id"`
}
