package services

import (
	"context"

	"github.com/tbourn/go-chat-relay/internal/llm"
)

// Persona is the fixed instruction placed ahead of every prompt.
const Persona = `Kamu adalah asisten guru matematika yang sabar dan membantu.
Panduan mengajar:
1. Jelaskan konsep dengan sederhana dan mudah dipahami
2. Berikan langkah penyelesaian step by step
3. Sertakan contoh yang relevan
4. Jika siswa bingung, coba pendekatan penjelasan yang berbeda
5. Dorong siswa untuk berpikir kritis
Berikan jawaban dalam bahasa Indonesia yang jelas, singkat dan edukatif dengan contoh soal jika diperlukan.`

// ContextAssembler renders the persona plus a session's recent window into
// a completion prompt. The window is capped by message count, not tokens.
type ContextAssembler struct {
	Store  *ConversationStore
	Window int
}

// NewContextAssembler returns an assembler; window <= 0 selects DefaultWindow.
func NewContextAssembler(store *ConversationStore, window int) *ContextAssembler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &ContextAssembler{Store: store, Window: window}
}

// Assemble returns [persona, window...]. Roles are preserved, so system
// markers stored in the history reach the model as system entries.
func (a *ContextAssembler) Assemble(ctx context.Context, sessionID string) ([]llm.Message, error) {
	turns, err := a.Store.RecentWindow(ctx, sessionID, a.Window)
	if err != nil {
		return nil, err
	}
	out := make([]llm.Message, 0, len(turns)+1)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: Persona})
	for _, t := range turns {
		out = append(out, llm.Message{Role: t.Role, Content: t.Content})
	}
	return out, nil
}
