package gateway

// bankNames maps NAPAS BINs to display names for the payment page
var bankNames = map[string]string{
	"970422": "MB Bank",
	"970436": "Vietcombank",
	"970407": "Techcombank",
	"970418": "BIDV",
	"970415": "VietinBank",
	"970416": "ACB",
	"970405": "Agribank",
	"970432": "VPBank",
	"970423": "TPBank",
	"970403": "Sacombank",
}

// FormatBankLabel maps a bank BIN to a display name. Unknown BINs are
// shown as the raw code so the payment page never renders blank.
func FormatBankLabel(bin string) string {
	if name, ok := bankNames[bin]; ok {
		return name
	}
	return bin
}
