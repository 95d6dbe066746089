package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayment computes the checkout signature Razorpay attaches to a
// completed payment: hex(HMAC-SHA256(secret, order_id + "|" + payment_id)).
func SignPayment(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID))
	mac.Write([]byte{'|'})
	mac.Write([]byte(paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature reports whether signature matches the expected
// HMAC for the given order and payment IDs. The comparison is
// constant-time to avoid leaking how much of a forged signature matched.
func VerifyPaymentSignature(secret []byte, orderID, paymentID, signature string) bool {
	expected := SignPayment(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
