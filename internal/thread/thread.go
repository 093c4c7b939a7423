package thread

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyper-signals/daily-feed/internal/config"
	"github.com/hyper-signals/daily-feed/internal/model"
	"github.com/hyper-signals/daily-feed/internal/tools"
)

const (
	_dateLayout = "January 02, 2006"

	_footer = `📈 Data: @naborlabs
🤖 Powered by hyper-signals

Follow for daily updates!`
)

// Formatter turns fetched positions into thread posts. It does no I/O; the
// only non-deterministic input is the clock used for the header date.
type Formatter struct {
	symbols        []string
	topN           int
	labelMaxLength int
	now            func() time.Time
}

func NewFormatter(cfg config.FeedConfig) *Formatter {
	return &Formatter{
		symbols:        cfg.Tokens,
		topN:           cfg.Nansen.PerPage,
		labelMaxLength: cfg.Thread.LabelMaxLength,
		now:            time.Now,
	}
}

func (f *Formatter) WithClock(now func() time.Time) *Formatter {
	cp := *f
	cp.now = now
	return &cp
}

// Format emits the header, one post per tracked symbol in tracking order and
// the footer. Symbols without positions get a placeholder post.
func (f *Formatter) Format(snapshot *model.Snapshot) []model.Post {
	posts := make([]model.Post, 0, len(f.symbols)+2)
	posts = append(posts, f.Header())
	for _, symbol := range f.symbols {
		r, _ := snapshot.Get(symbol)
		posts = append(posts, f.SymbolPost(symbol, r))
	}
	posts = append(posts, Footer())
	return posts
}

func (f *Formatter) Header() model.Post {
	tags := make([]string, len(f.symbols))
	for i, s := range f.symbols {
		tags[i] = "$" + s
	}

	text := fmt.Sprintf(`🔥 Hyperliquid Daily Positions

📅 %s

Top %d positions for:
%s

Thread 👇`, f.now().Format(_dateLayout), f.topN, strings.Join(tags, " "))

	return model.Post{Text: text}
}

func (f *Formatter) SymbolPost(symbol string, r model.SymbolResult) model.Post {
	top, ok := r.Top()
	if !ok {
		return model.Post{Text: fmt.Sprintf("$%s: No positions found", symbol)}
	}

	longs, shorts := r.Counts()

	sideEmoji := "🔴"
	if top.IsLong() {
		sideEmoji = "🟢"
	}
	pnlEmoji := "✅"
	if top.UPnlUSD.IsNegative() {
		pnlEmoji = "❌"
	}
	side := string(top.Side)
	if side == "" {
		side = "Unknown"
	}

	text := fmt.Sprintf(`$%s Top Positions

🟢 Longs: %d | 🔴 Shorts: %d

Top: %s
%s %s %s
└ Entry: %s
└ %s uPnL: %s`,
		symbol,
		longs, shorts,
		tools.TruncateLabel(displayLabel(top), f.labelMaxLength),
		sideEmoji, side, tools.FormatCompact(top.PositionValueUSD, false),
		tools.FormatPrice(top.EntryPrice),
		pnlEmoji, tools.FormatCompact(top.UPnlUSD, true),
	)

	return model.Post{Text: text}
}

func Footer() model.Post {
	return model.Post{Text: _footer}
}

func displayLabel(p model.Position) string {
	switch {
	case p.AddressLabel != "":
		return p.AddressLabel
	case p.Address != "":
		return p.Address
	default:
		return "Unknown"
	}
}
