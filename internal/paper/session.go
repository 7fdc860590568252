package paper

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"meanrev-go/internal/execution"
	sig "meanrev-go/internal/signal"
	"meanrev-go/internal/trader"
)

// Summary is the outcome of a replayed session.
type Summary struct {
	Ticks    int
	Orders   int
	Fills    int
	Rejected int
	Final    Snapshot
}

// Session plays the harness role: it feeds positions and trader data into the
// trader each tick, matches the returned orders and carries the new token forward.
type Session struct {
	trader   *trader.Trader
	account  *Account
	executor *execution.Executor
	log      zerolog.Logger
}

// NewSession wires a trader to a paper account.
func NewSession(tr *trader.Trader, account *Account, log zerolog.Logger) *Session {
	return &Session{
		trader:   tr,
		account:  account,
		executor: execution.NewExecutor(log),
		log:      log,
	}
}

// Run consumes ticks until the channel closes or ctx is done. Incoming
// positions and trader data are replaced by the session's own.
func (s *Session) Run(ctx context.Context, ticks <-chan sig.State) (Summary, error) {
	var (
		sum   Summary
		token string
		marks = make(map[string]float64)
	)
	for {
		select {
		case <-ctx.Done():
			sum.Final = s.account.Snapshot(marks)
			return sum, ctx.Err()
		case st, ok := <-ticks:
			if !ok {
				sum.Final = s.account.Snapshot(marks)
				return sum, nil
			}
			sum.Ticks++
			st.TraderData = token
			st.Position = s.account.Positions()

			res := s.trader.Run(st)
			token = res.TraderData

			for sym, orders := range res.Orders {
				depth := st.OrderDepths[sym]
				if mid, ok := depth.MidPrice(); ok {
					marks[sym] = mid
				}
				for _, o := range orders {
					_ = s.executor.Submit(o)
				}
				sum.Orders += len(orders)
				fills, err := s.account.Execute(st.Timestamp, sym, depth, orders)
				if errors.Is(err, ErrPositionLimit) {
					sum.Rejected += len(orders)
					s.log.Warn().Err(err).Str("sym", sym).Int64("ts", st.Timestamp).Msg("orders rejected")
					continue
				}
				if err != nil {
					return sum, err
				}
				sum.Fills += len(fills)
			}
		}
	}
}
