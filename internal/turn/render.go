package turn

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/koopa0/concierge/internal/i18n"
)

// Payload status codes.
const (
	StatusOK = "success"
)

// fallbackAvatarText is the neutral utterance used when avatar
// generation degrades or the join is abandoned.
func fallbackAvatarText(locale string) string {
	return i18n.T(locale, i18n.KeyAvatarFallback)
}

// buildPayload assembles the normalized render payload: the avatar text
// is the primary spoken message of the decision block, the
// branch-specific content becomes remarks and options beneath it, and
// the Handoff branch appends the generic ask-for-more-detail block.
//
// Render ids are derived deterministically from the chat id and block
// position, so identical inputs with identical collaborator responses
// produce an identical payload.
func (e *Engine) buildPayload(in Input, d Decision, avatarText, locale string) Payload {
	var blocks []RenderBlock

	switch d.Kind {
	case KindNeedsScope:
		options := make([]RenderOption, 0, len(d.Suggestions))
		for _, s := range d.Suggestions {
			options = append(options, RenderOption{
				Label: s.DisplayName,
				Value: s.Line,
				Icon:  s.Icon,
				KBID:  s.KBID,
			})
		}
		blocks = append(blocks, RenderBlock{
			Type:    BlockAskProductLine,
			Message: avatarText,
			Remark:  []string{d.Clarification},
			Option:  options,
		})

	case KindAnswer:
		options := make([]RenderOption, 0, len(d.Hints))
		for _, h := range d.Hints {
			options = append(options, RenderOption{
				Label: h.Question,
				Value: h.KBID,
				KBID:  h.KBID,
				Link:  h.Link,
			})
		}
		blocks = append(blocks, RenderBlock{
			Type:    BlockTechnicalSupport,
			Message: avatarText,
			Remark:  []string{d.AnswerText},
			Option:  options,
		})

	case KindHandoff:
		var remark []string
		var options []RenderOption
		if d.KBID != "" && d.KBTitle != "" {
			remark = []string{i18n.T(locale, i18n.KeyHandoffReference) + " " + d.KBTitle}
			options = []RenderOption{{
				Label: d.KBTitle,
				Value: d.KBID,
				KBID:  d.KBID,
				Link:  d.KBLink,
			}}
		}
		blocks = append(blocks, RenderBlock{
			Type:    BlockText,
			Message: avatarText,
			Remark:  remark,
			Option:  options,
		})

		askOptions := make([]RenderOption, 0, len(d.ExamplePrompts))
		for _, p := range d.ExamplePrompts {
			askOptions = append(askOptions, RenderOption{Label: p, Value: p})
		}
		blocks = append(blocks, RenderBlock{
			Type:    BlockAsk,
			Message: i18n.T(locale, i18n.KeyAskMoreDetail),
			Option:  askOptions,
		})
	}

	for i := range blocks {
		blocks[i].RenderID = renderID(in.ChatID, blocks[i].Type, i)
		if blocks[i].Remark == nil {
			blocks[i].Remark = []string{}
		}
		if blocks[i].Option == nil {
			blocks[i].Option = []RenderOption{}
		}
	}

	return Payload{
		Status:  StatusOK,
		Message: string(d.Kind),
		Result:  blocks,
	}
}

// renderID derives a stable block identifier from chat id, block type,
// and position.
func renderID(chatID, blockType string, position int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chatID+"/"+blockType+"/"+strconv.Itoa(position))).String()
}
