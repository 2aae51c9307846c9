package validation

// Static intake data. Changing any of these requires a deploy.

const ProfessionOther = "other"

// Professions is the fixed category set for construction professionals.
var Professions = []string{
	"architect",
	"engineer",
	"contractor",
	"developer",
	"surveyor",
	"project_manager",
	"sustainability_consultant",
	ProfessionOther,
}

var InvestorTypes = []string{"Angel", "VC", "Strategic", "Other"}

var disposableDomains = map[string]struct{}{
	"10minutemail.com":       {},
	"10minutemail.net":       {},
	"20minutemail.com":       {},
	"33mail.com":             {},
	"anonbox.net":            {},
	"burnermail.io":          {},
	"discard.email":          {},
	"dispostable.com":        {},
	"emailondeck.com":        {},
	"fakeinbox.com":          {},
	"getairmail.com":         {},
	"getnada.com":            {},
	"guerrillamail.biz":      {},
	"guerrillamail.com":      {},
	"guerrillamail.de":       {},
	"guerrillamail.info":     {},
	"guerrillamail.net":      {},
	"guerrillamail.org":      {},
	"guerrillamailblock.com": {},
	"harakirimail.com":       {},
	"inboxbear.com":          {},
	"mailcatch.com":          {},
	"maildrop.cc":            {},
	"mailinator.com":         {},
	"mailinator.net":         {},
	"mailnesia.com":          {},
	"mintemail.com":          {},
	"moakt.com":              {},
	"mohmal.com":             {},
	"mytemp.email":           {},
	"sharklasers.com":        {},
	"spamgourmet.com":        {},
	"temp-mail.io":           {},
	"temp-mail.org":          {},
	"tempail.com":            {},
	"tempmail.com":           {},
	"tempmail.dev":           {},
	"tempmail.net":           {},
	"tempmailo.com":          {},
	"tempr.email":            {},
	"throwawaymail.com":      {},
	"trashmail.com":          {},
	"trashmail.de":           {},
	"yopmail.com":            {},
	"yopmail.fr":             {},
	"yopmail.net":            {},
}
