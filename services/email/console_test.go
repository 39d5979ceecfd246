package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/trezcool/suara/core"
	logsvc "github.com/trezcool/suara/services/logger"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := &core.Config{AppName: "Suara", FrontendBaseURL: "http://localhost:3000"}
	logger := logsvc.NewZapLogger(zaptest.NewLogger(t).Sugar())
	core.ParseEmailTemplates(logger)
	svc := NewConsoleServiceMock(conf, logger)

	to := []mail.Address{{Address: "ali@test.my"}}
	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "hello"},
		&core.EmailMessage{To: to, Subject: "unknown template", TemplateName: "lol"},
		&core.EmailMessage{
			To:           to,
			Subject:      "templated",
			TemplateName: "training_completed",
			TemplateData: map[string]interface{}{
				"Email": "ali@test.my", "Message": "done!", "TotalStories": 27, "Currency": "MYR", "Earnings": "2.70",
			},
		},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)

	assert.Equal(t, "plain", sent[0].Subject)
	assert.Equal(t, "hello", sent[0].TextContent)
	assert.Empty(t, sent[0].HTMLContent)

	assert.Equal(t, "templated", sent[1].Subject)
	assert.Contains(t, sent[1].TextContent, "Hi ali@test.my,")
	assert.Contains(t, sent[1].TextContent, "You completed 27 stories and earned MYR 2.70 in total.")
	assert.Contains(t, sent[1].TextContent, "The Suara team")
	assert.Contains(t, sent[1].HTMLContent, "<p>done!</p>")
}
