// Package flow provides the static conversation content: welcome message,
// menus, channel information blurbs and canned responses.
package flow

// WelcomeMessage is the reply to greeting keywords.
func WelcomeMessage() string {
	return "👋 Welcome! I'm the demo bot.\n\n" +
		"Type 'menu' to see what I can do, or 'demo' to try a live flow."
}

// MenuMessage is the main numbered menu.
func MenuMessage() string {
	return "📋 *Main menu*\n\n" +
		"1️⃣ WhatsApp channel info\n" +
		"2️⃣ Instagram channel info\n" +
		"3️⃣ Messenger channel info\n" +
		"4️⃣ Demo submenu\n" +
		"5️⃣ Contact us\n\n" +
		"👉 Reply with a number."
}

// ListMenuMessage is the alternative list-style menu.
func ListMenuMessage() string {
	return "📝 *Services*\n\n" +
		"• Automated attention on WhatsApp, Instagram and Messenger\n" +
		"• Interactive catalogs in chat\n" +
		"• Multi-step checkout demos\n" +
		"• Human handover from the dashboard\n\n" +
		"Type 'menu' for the numbered menu or 'demo' to try a flow."
}

// ChannelInfo returns the info blurb for a built-in channel shortcut, keyed
// by the menu option.
func ChannelInfo(option string) (string, bool) {
	switch option {
	case "1":
		return "💬 *WhatsApp bot*\n" +
			"- Automated replies on your business number\n" +
			"- Multi-step flows with payment links\n" +
			"- Human takeover at any time\n\n" +
			"Want a demo? Type 'demo'.", true
	case "2":
		return "📸 *Instagram bot*\n" +
			"- DM automation for your profile\n" +
			"- Story mention follow-ups\n" +
			"- Catalog replies in chat\n\n" +
			"Want a demo? Type 'demo'.", true
	case "3":
		return "👋 *Messenger bot*\n" +
			"- Attention on your Facebook page\n" +
			"- Interactive catalogs in chat\n" +
			"- Welcome scripts and handovers\n\n" +
			"Want a demo? Type 'demo'.", true
	case "5":
		return "📞 *Contact us*\n" +
			"Email: hello@example.com\n" +
			"We reply within one business day.", true
	default:
		return "", false
	}
}

// CannedResponse returns the generic reply for inputs that match no command
// or menu. Unknown phrases fall back to a help message.
func CannedResponse(text string) string {
	switch text {
	case "thanks", "thank you", "ty":
		return "🙏 You're welcome, always at your service."
	case "bye", "goodbye", "see you":
		return "👋 See you soon!"
	case "ok", "okay", "done":
		return "✅ Perfect, let's continue."
	default:
		return "🤔 I didn't understand your message.\n" +
			"Type 'menu' to see the available options or 'list' for another menu."
	}
}
