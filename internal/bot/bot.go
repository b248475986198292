package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/drivers"
	"driver-review-service/internal/leaderboard"
	"driver-review-service/internal/models"
	"driver-review-service/pkg/logger"
)

// Bot is a read-only Telegram front-end for search and leaderboards.
type Bot struct {
	Bot     *tele.Bot
	Drivers *drivers.Service
	Board   *leaderboard.Service
	Log     logger.ILogger

	ctx context.Context
}

// requestTimeout caps each lookup behind a command.
const requestTimeout = 10 * time.Second

func New(token string, ds *drivers.Service, board *leaderboard.Service, log logger.ILogger) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}
	bot := &Bot{Bot: b, Drivers: ds, Board: board, Log: log, ctx: context.Background()}
	bot.registerHandlers()
	return bot, nil
}

// Start polls until ctx is cancelled. Lookups in flight are cancelled with it.
func (b *Bot) Start(ctx context.Context) {
	b.ctx = ctx
	go func() {
		<-ctx.Done()
		b.Bot.Stop()
	}()
	b.Log.Info("telegram bot started", logger.String("username", b.Bot.Me.Username))
	b.Bot.Start()
}

func (b *Bot) registerHandlers() {
	b.Bot.Handle("/start", b.handleStart)
	b.Bot.Handle("/check", b.handleCheck)
	b.Bot.Handle("/top", b.handleTop)
	b.Bot.Handle("/stats", b.handleStats)
}

const helpText = "<b>Driver check</b>\n\n" +
	"/check &lt;vehicle number&gt; [platform] - ratings and reviews\n" +
	"/top - top contributors and top rated drivers\n" +
	"/stats - community totals"

func (b *Bot) requestContext() (context.Context, context.CancelFunc) {
	parent := b.ctx
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, requestTimeout)
}

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send(helpText, tele.ModeHTML)
}

func (b *Bot) handleCheck(c tele.Context) error {
	q, ok := parseCheckArgs(c.Args())
	if !ok {
		return c.Send("Usage: /check KA01AB1234 [ola|uber|rapido|namma_yatri]")
	}
	ctx, cancel := b.requestContext()
	defer cancel()
	found, err := b.Drivers.Search(ctx, q)
	if err != nil {
		if apperr.IsValidation(err) {
			_, body := apperr.Describe(err)
			return c.Send(body.Message)
		}
		b.Log.Error("bot search failed", logger.String("vehicle_number", q.VehicleNumber), logger.Error(err))
		return c.Send("Something went wrong, try again later.")
	}
	return c.Send(formatSearch(models.NormalizeVehicleNumber(q.VehicleNumber), found), tele.ModeHTML)
}

func (b *Bot) handleTop(c tele.Context) error {
	ctx, cancel := b.requestContext()
	defer cancel()
	contributors, err := b.Board.TopContributors(ctx, 0)
	if err != nil {
		b.Log.Error("bot top contributors failed", logger.Error(err))
		return c.Send("Something went wrong, try again later.")
	}
	rated, err := b.Board.TopRatedDrivers(ctx, 0)
	if err != nil {
		b.Log.Error("bot top drivers failed", logger.Error(err))
		return c.Send("Something went wrong, try again later.")
	}
	return c.Send(formatTop(contributors, rated), tele.ModeHTML)
}

func (b *Bot) handleStats(c tele.Context) error {
	ctx, cancel := b.requestContext()
	defer cancel()
	st, err := b.Board.Stats(ctx)
	if err != nil {
		b.Log.Error("bot stats failed", logger.Error(err))
		return c.Send("Something went wrong, try again later.")
	}
	return c.Send(formatStats(st), tele.ModeHTML)
}

// parseCheckArgs accepts "/check KA 01 AB 1234 uber": a trailing known platform
// is split off and the remaining words form the vehicle number.
func parseCheckArgs(args []string) (drivers.SearchQuery, bool) {
	if len(args) == 0 {
		return drivers.SearchQuery{}, false
	}
	var q drivers.SearchQuery
	if p, err := models.ParsePlatform(args[len(args)-1]); err == nil && len(args) > 1 {
		q.Platform = p
		args = args[:len(args)-1]
	}
	q.VehicleNumber = strings.Join(args, " ")
	return q, true
}

func formatSearch(vehicle string, found []models.DriverDetails) string {
	if len(found) == 0 {
		return fmt.Sprintf("No driver data found for <b>%s</b>.", html.EscapeString(vehicle))
	}
	var sb strings.Builder
	for i, d := range found {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "<b>%s</b> on %s\n", html.EscapeString(d.VehicleNumber), d.Platform.Label())
		if d.DriverName != nil {
			fmt.Fprintf(&sb, "Driver: %s\n", html.EscapeString(*d.DriverName))
		}
		fmt.Fprintf(&sb, "Rating: %s (%d reviews)", stars(d.AverageRating), len(d.Reviews))
		for j, r := range d.Reviews {
			if j == 3 {
				break
			}
			text := ""
			if r.ReviewText != nil {
				text = " " + html.EscapeString(*r.ReviewText)
			}
			fmt.Fprintf(&sb, "\n  %d/5%s", r.Rating, text)
		}
	}
	return sb.String()
}

func formatTop(contributors []models.Contributor, rated []models.DriverSummary) string {
	var sb strings.Builder
	sb.WriteString("<b>Top contributors</b>")
	if len(contributors) == 0 {
		sb.WriteString("\nNo contributions yet.")
	}
	for i, c := range contributors {
		fmt.Fprintf(&sb, "\n%d. %s - %d", i+1, html.EscapeString(c.DisplayName), c.Score)
	}
	sb.WriteString("\n\n<b>Top rated drivers</b>")
	if len(rated) == 0 {
		sb.WriteString("\nNo ratings yet.")
	}
	for i, d := range rated {
		fmt.Fprintf(&sb, "\n%d. %s (%s) %s", i+1, html.EscapeString(d.VehicleNumber), d.Platform.Label(), stars(d.AverageRating))
	}
	return sb.String()
}

func formatStats(st *models.Stats) string {
	return fmt.Sprintf("<b>Community stats</b>\nDrivers: %d\nReviews: %d\nUsers: %d\nAverage rating: %.1f",
		st.TotalDrivers, st.TotalReviews, st.TotalUsers, st.AverageRating)
}

func stars(avg float64) string {
	if avg <= 0 {
		return "not rated"
	}
	return fmt.Sprintf("%.1f/5", avg)
}
