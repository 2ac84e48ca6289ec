package midtrans

import (
	"strings"

	"github.com/midtrans/midtrans-go/coreapi"
)

const (
	actionQRCode   = "generate-qr-code"
	actionDeeplink = "deeplink-redirect"
)

func actionURL(r *coreapi.ChargeResponse, name string) string {
	for _, a := range r.Actions {
		if a.Name == name {
			return a.URL
		}
	}
	return ""
}

func chargeMessage(r *coreapi.ChargeResponse) string {
	msg := r.StatusMessage
	if len(r.ValidationMessages) > 0 {
		detail := strings.Join(r.ValidationMessages, "; ")
		if msg == "" {
			return detail
		}
		msg += ": " + detail
	}
	return msg
}

func mandiriBill(r *coreapi.ChargeResponse) string {
	if r.BillerCode == "" || r.BillKey == "" {
		return ""
	}
	return r.BillerCode + " " + r.BillKey
}

// ExtractPaymentCode returns the payable artifact and, for QR methods, the QR image URL.
// The payment_type discriminant selects the shape; unknown types fall back to sniffing.
// An empty code means no renderable instruction yet, not an error.
func ExtractPaymentCode(r *coreapi.ChargeResponse) (code, qrURL string) {
	switch r.PaymentType {
	case "bank_transfer":
		if len(r.VaNumbers) > 0 {
			return r.VaNumbers[0].VANumber, ""
		}
		return r.PermataVaNumber, ""
	case "echannel":
		return mandiriBill(r), ""
	case "qris":
		return r.QRString, actionURL(r, actionQRCode)
	case "gopay":
		return actionURL(r, actionDeeplink), actionURL(r, actionQRCode)
	case "shopeepay":
		return actionURL(r, actionDeeplink), ""
	case "cstore":
		if r.PaymentCode != "" {
			return r.PaymentCode, ""
		}
	}
	return sniffPaymentCode(r)
}

func sniffPaymentCode(r *coreapi.ChargeResponse) (string, string) {
	switch {
	case len(r.VaNumbers) > 0 && r.VaNumbers[0].VANumber != "":
		return r.VaNumbers[0].VANumber, ""
	case mandiriBill(r) != "":
		return mandiriBill(r), ""
	case r.PermataVaNumber != "":
		return r.PermataVaNumber, ""
	case r.QRString != "":
		return r.QRString, actionURL(r, actionQRCode)
	case actionURL(r, actionDeeplink) != "":
		return actionURL(r, actionDeeplink), actionURL(r, actionQRCode)
	}
	return "", ""
}
