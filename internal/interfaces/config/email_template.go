// Package config
package config

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"path/filepath"
	texttemplate "text/template"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

//go:embed templates/*.template
var bundledTemplates embed.FS

// EmailTemplate is a pair of html and plain text bodies for one notification kind
type EmailTemplate struct {
	Subject string
	Html    *htmltemplate.Template
	Text    *texttemplate.Template
}

type EmailTemplateConfig struct {
	Directory string                    `json:"directory"`
	Subjects  map[string]string         `json:"subjects"`
	Templates map[string]*EmailTemplate `json:"-"`
}

const (
	TemplateProposalsReady      = "proposals_ready"
	TemplateNoSlotsAvailable    = "no_slots_available"
	TemplateRescheduleConfirmed = "reschedule_confirmed"
	TemplateBookingCancelled    = "booking_cancelled"
)

func defaultEmailTemplateConfig() *EmailTemplateConfig {
	return &EmailTemplateConfig{
		Directory: "template",
		Subjects: map[string]string{
			TemplateProposalsReady:      "Weather conflict: new times proposed for your lesson",
			TemplateNoSlotsAvailable:    "Weather conflict: no alternative times available",
			TemplateRescheduleConfirmed: "Your lesson has been rescheduled",
			TemplateBookingCancelled:    "Your lesson has been cancelled",
		},
	}
}

func (config *EmailTemplateConfig) checkValid(logger log.LoggerInterface) *ValidResult {
	config.Templates = make(map[string]*EmailTemplate)
	for _, name := range []string{TemplateProposalsReady, TemplateNoSlotsAvailable, TemplateRescheduleConfirmed, TemplateBookingCancelled} {
		template, err := loadEmailTemplate(logger, config.Directory, name)
		if err != nil {
			return ValidFailWith(fmt.Errorf("fail to load email template %s", name), err)
		}
		template.Subject = config.Subjects[name]
		if template.Subject == "" {
			return ValidFail(fmt.Errorf("invalid json field http_server.email.template.subjects, missing subject for %s", name))
		}
		config.Templates[name] = template
	}
	return ValidPass()
}

func loadEmailTemplate(logger log.LoggerInterface, directory string, name string) (*EmailTemplate, error) {
	htmlName := name + ".html.template"
	textName := name + ".text.template"

	htmlDefault, err := bundledTemplates.ReadFile("templates/" + htmlName)
	if err != nil {
		return nil, err
	}
	textDefault, err := bundledTemplates.ReadFile("templates/" + textName)
	if err != nil {
		return nil, err
	}

	htmlContent, err := seededContent(logger, filepath.Join(directory, htmlName), htmlDefault)
	if err != nil {
		return nil, err
	}
	textContent, err := seededContent(logger, filepath.Join(directory, textName), textDefault)
	if err != nil {
		return nil, err
	}

	htmlTemplate, err := htmltemplate.New(name).Parse(string(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", htmlName, err)
	}
	textTemplate, err := texttemplate.New(name).Parse(string(textContent))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", textName, err)
	}
	return &EmailTemplate{Html: htmlTemplate, Text: textTemplate}, nil
}

// LoadBundledEmailTemplates parses the embedded templates without touching disk
func LoadBundledEmailTemplates() (map[string]*EmailTemplate, error) {
	defaults := defaultEmailTemplateConfig()
	templates := make(map[string]*EmailTemplate)
	for name, subject := range defaults.Subjects {
		htmlContent, err := bundledTemplates.ReadFile("templates/" + name + ".html.template")
		if err != nil {
			return nil, err
		}
		textContent, err := bundledTemplates.ReadFile("templates/" + name + ".text.template")
		if err != nil {
			return nil, err
		}
		htmlTemplate, err := htmltemplate.New(name).Parse(string(htmlContent))
		if err != nil {
			return nil, err
		}
		textTemplate, err := texttemplate.New(name).Parse(string(textContent))
		if err != nil {
			return nil, err
		}
		templates[name] = &EmailTemplate{Subject: subject, Html: htmlTemplate, Text: textTemplate}
	}
	return templates, nil
}
