package email

import (
	"strconv"
	"strings"

	"github.com/windevexpert/windevexpert/internal/port/notifier"
)

func init() {
	notifier.Register(providerName, func(config map[string]string) (notifier.Notifier, error) {
		port, _ := strconv.Atoi(config["port"])
		mailer := NewMailer(SMTPConfig{
			Host:     config["host"],
			Port:     port,
			User:     config["user"],
			Password: config["password"],
			From:     config["from"],
		}, nil)
		renderer, err := NewRenderer(config["site_name"], config["site_url"])
		if err != nil {
			return nil, err
		}
		var recipients []string
		for _, r := range strings.Split(config["recipients"], ",") {
			if r = strings.TrimSpace(r); r != "" {
				recipients = append(recipients, r)
			}
		}
		return NewNotifier(mailer, renderer, recipients), nil
	})
}
