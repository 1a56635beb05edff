package streamhub

import (
	"time"

	"arbitrage/internal/trade"
)

// MessageType определяет тип сообщения, рассылаемого подписчикам потока.
type MessageType string

const (
	// MessageTypeCandidates - очередная порция ранжированных цепочек,
	// прошедших порог прибыльности драйвера.
	MessageTypeCandidates MessageType = "candidates"
)

// BaseMessage - общий конверт для всех сообщений потока.
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// CandidateStep - одна сделка цепочки в представлении, пригодном для JSON.
type CandidateStep struct {
	Exchange string  `json:"exchange"`
	FromCur  string  `json:"from_cur"`
	NextCur  string  `json:"next_cur"`
	Amount   float64 `json:"amount"`
	Limit    float64 `json:"limit"`
	Value    float64 `json:"value"`
}

// Candidate - одна ранжированная цепочка вместе с её суммарной
// прибыльностью, как её видит подписчик.
type Candidate struct {
	Profitability float64         `json:"profitability"`
	NumExchanges  int             `json:"num_exchanges"`
	Steps         []CandidateStep `json:"steps"`
}

// CandidatesMessage - сообщение с порцией ранжированных кандидатов.
type CandidatesMessage struct {
	BaseMessage
	Candidates []Candidate `json:"candidates"`
}

// NewCandidatesMessage строит сообщение из цепочек, уже отфильтрованных и
// отсортированных драйвером.
func NewCandidatesMessage(chains []trade.Chain) *CandidatesMessage {
	candidates := make([]Candidate, len(chains))
	for i, chain := range chains {
		steps := make([]CandidateStep, len(chain))
		for j, t := range chain {
			steps[j] = CandidateStep{
				Exchange: t.Exchange,
				FromCur:  t.FromCur,
				NextCur:  t.NextCur,
				Amount:   t.Amount,
				Limit:    t.Limit,
				Value:    t.Value,
			}
		}
		candidates[i] = Candidate{
			Profitability: trade.Profitability(chain),
			NumExchanges:  trade.NumExchanges(chain),
			Steps:         steps,
		}
	}
	return &CandidatesMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeCandidates,
			Timestamp: time.Now(),
		},
		Candidates: candidates,
	}
}
