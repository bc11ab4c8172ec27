package i18n

var messagesZhTW = map[string]string{
	KeyAvatarFallback:   "讓我幫您查詢一下。",
	KeyAskMoreDetail:    "可以再多描述一下您遇到的問題嗎？",
	KeyClarifyFallback:  "請問是哪一項產品呢？請從下方選擇。",
	KeyHandoffReference: "這篇文章可能與您的問題相關：",
}

var examplePromptsZhTW = []string{
	"筆電更換電池後無法開機",
	"螢幕接 HDMI 時會閃爍",
	"路由器要如何恢復原廠設定？",
}
