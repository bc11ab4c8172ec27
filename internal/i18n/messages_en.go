package i18n

var messagesEN = map[string]string{
	KeyAvatarFallback:   "Let me take a look at that for you.",
	KeyAskMoreDetail:    "Could you tell me a bit more about the issue?",
	KeyClarifyFallback:  "Which product is this about? Please pick one below.",
	KeyHandoffReference: "This article might be related:",
}

var examplePromptsEN = []string{
	"My notebook will not power on after a battery swap",
	"The monitor flickers when I connect it over HDMI",
	"How do I reset the router to factory settings?",
}
