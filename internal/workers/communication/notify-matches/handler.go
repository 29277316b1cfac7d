// internal/workers/communication/notify-matches/handler.go
package notifymatches

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"sponsorloop-workers/internal/common/aws"
	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/common/validation"
	"sponsorloop-workers/internal/matching"

	"github.com/google/uuid"
)

const TaskType = "notify-matches"

const emailSubject = "Your new SponsorLoop matches"

var templateFuncs = template.FuncMap{"inc": func(i int) int { return i + 1 }}

var (
	emailTemplate = template.Must(template.New("email").Funcs(templateFuncs).Parse(
		`Hi {{if .Name}}{{.Name}}{{else}}there{{end}},

Here are your top matches:
{{range $i, $m := .Matches}}
{{inc $i}}. {{$m.Profile.DisplayName}} ({{$m.Score}}% match)
   - {{index $m.Reasons 0}}
   - {{index $m.Reasons 1}}
{{end}}
Open SponsorLoop to start a conversation.
`))

	smsTemplate = template.Must(template.New("sms").Funcs(templateFuncs).Parse(
		`SponsorLoop matches: {{range $i, $m := .Matches}}{{if $i}}; {{end}}{{inc $i}}. {{$m.Profile.DisplayName}} {{$m.Score}}%{{end}}`))
)

type Handler struct {
	config *Config
	email  aws.EmailSender
	sms    aws.SMSSender
	logger logger.Logger
	now    func() time.Time
}

// NewHandler builds the worker. A nil sender disables its channel.
func NewHandler(config *Config, email aws.EmailSender, sms aws.SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		email:  email,
		sms:    sms,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) HandleJob(ctx context.Context, variables string) (interface{}, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return h.Execute(ctx, &input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	channel := strings.ToLower(strings.TrimSpace(input.Channel))
	if err := validateRecipient(channel, input.Recipient); err != nil {
		return nil, err
	}

	out := &Output{
		NotificationID: uuid.NewString(),
		Channel:        channel,
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	if len(input.Matches) == 0 {
		out.Status = StatusSkipped
		h.logger.Info("No matches to send", map[string]interface{}{"channel": channel})
		return out, nil
	}

	var err error
	switch channel {
	case ChannelEmail:
		if !h.config.EmailEnabled || h.email == nil {
			out.Status = StatusDisabled
			return out, nil
		}
		out.MessageID, err = h.sendEmail(ctx, input)
	case ChannelSMS:
		if !h.config.SMSEnabled || h.sms == nil {
			out.Status = StatusDisabled
			return out, nil
		}
		out.MessageID, err = h.sendSMS(ctx, input)
	}
	if err != nil {
		return nil, errors.NewNotificationSendFailedError(channel, err)
	}

	out.Status = StatusSent
	h.logger.Info("Matches sent", map[string]interface{}{
		"channel":   channel,
		"matches":   len(input.Matches),
		"messageId": out.MessageID,
	})
	return out, nil
}

func validateRecipient(channel, recipient string) error {
	switch channel {
	case ChannelEmail:
		if !validation.ValidateEmail(recipient) {
			return errors.NewInputValidationFailedError(fmt.Sprintf("invalid email recipient %q", recipient))
		}
	case ChannelSMS:
		if !validation.ValidatePhone(recipient) {
			return errors.NewInputValidationFailedError(fmt.Sprintf("invalid phone recipient %q", recipient))
		}
	default:
		return errors.NewInputValidationFailedError(fmt.Sprintf("unsupported channel %q", channel))
	}
	return nil
}

type messageData struct {
	Name    string
	Matches []matching.MatchResult
}

func (h *Handler) sendEmail(ctx context.Context, input *Input) (string, error) {
	body, err := render(emailTemplate, messageData{Name: input.ViewerName, Matches: withReasons(input.Matches)})
	if err != nil {
		return "", err
	}
	return h.email.SendEmail(ctx, input.Recipient, emailSubject, body)
}

func (h *Handler) sendSMS(ctx context.Context, input *Input) (string, error) {
	matches := input.Matches
	if h.config.SMSMaxMatches > 0 && len(matches) > h.config.SMSMaxMatches {
		matches = matches[:h.config.SMSMaxMatches]
	}
	body, err := render(smsTemplate, messageData{Matches: matches})
	if err != nil {
		return "", err
	}
	return h.sms.SendSMS(ctx, input.Recipient, body)
}

// withReasons recomputes reasons for results that arrive without the pair.
func withReasons(results []matching.MatchResult) []matching.MatchResult {
	out := make([]matching.MatchResult, len(results))
	for i, r := range results {
		if len(r.Reasons) < 2 {
			r.Reasons = matching.Reasons(r.Profile)
		}
		out[i] = r
	}
	return out
}

func render(t *template.Template, data messageData) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s message: %w", t.Name(), err)
	}
	return sb.String(), nil
}
