package i18n

// translations maps key → language code → format string.
//
// Supported languages: en (English), de (German), tr (Turkish).
var translations = map[string]map[string]string{

	// ─── Voucher email ───────────────────────────────────────────────────────
	// %s = site name
	"giftcard.email.subject": {
		"en": "%s gift card",
		"de": "%s Gutschein",
		"tr": "%s hediye kartı",
	},
	// %s = recipient name, %s = face value
	"giftcard.email.body": {
		"en": "Hello %s,\n\nyour gift card worth %s is attached to this email.\n",
		"de": "Hallo %s,\n\nIhr Gutschein im Wert von %s liegt dieser E-Mail bei.\n",
		"tr": "Merhaba %s,\n\n%s değerindeki hediye kartınız bu e-postanın ekindedir.\n",
	},
	"giftcard.email.greeting_fallback": {
		"en": "there",
		"de": "liebe Kundin, lieber Kunde",
		"tr": "değerli müşterimiz",
	},

	// ─── Voucher PDF ─────────────────────────────────────────────────────────
	"giftcard.voucher.heading": {
		"en": "Gift Card",
		"de": "Gutschein",
		"tr": "Hediye Kartı",
	},
	// %s = code
	"giftcard.voucher.title": {
		"en": "Gift card code %s",
		"de": "Gutscheincode %s",
		"tr": "Hediye kartı kodu %s",
	},
	// %s = code
	"giftcard.voucher.code": {
		"en": "Code: %s",
		"de": "Code: %s",
		"tr": "Kod: %s",
	},
	"giftcard.voucher.subject": {
		"en": "Gift card",
		"de": "Gutschein",
		"tr": "Hediye kartı",
	},
	"giftcard.voucher.keywords": {
		"en": "gift card voucher",
		"de": "Gutschein Geschenk",
		"tr": "hediye kartı",
	},

	// ─── Adjustment label ────────────────────────────────────────────────────
	"giftcard.adjustment.label": {
		"en": "Gift Card",
		"de": "Gutschein",
		"tr": "Hediye Kartı",
	},
}
