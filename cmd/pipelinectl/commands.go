package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pipeline-entry/internal/app"
	"github.com/pipeline-entry/internal/client"
	"github.com/pipeline-entry/internal/config"
	"github.com/pipeline-entry/internal/form"
	"github.com/pipeline-entry/internal/menu"
	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/validation"
	"github.com/pipeline-entry/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	username string
	password string
)

// loginApp builds the application context and logs in with the global
// credentials
func loginApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := app.New(cfg, logger.New())

	errs, err := a.Login(cmd.Context(), username, password)
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		printErrors(cmd.ErrOrStderr(), errs)
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("login failed for %s at %s: %w", username, a.Client.BaseURL(), err)
	}
	return a, nil
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check credentials and show the resulting role",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loginApp(cmd)
			if err != nil {
				return err
			}
			sess, _ := a.Session.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", sess.Username, sess.Role)
			return nil
		},
	}
}

func newMenuCmd() *cobra.Command {
	var activate int
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Show the dashboard options for the logged-in role",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loginApp(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if activate > 0 {
				option, act, err := a.Activate(activate)
				if err != nil {
					return err
				}
				if act.Action == menu.ActionOpenForm {
					fmt.Fprintf(out, "%s opens the record form; use `pipelinectl submit`\n", option.Title)
					return nil
				}
				printNotice(out, *act.Notice)
				return nil
			}

			options, err := a.Dashboard()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Dashboard for %s\n", a.Session.Role())
			printOptions(out, options)
			return nil
		},
	}
	cmd.Flags().IntVar(&activate, "activate", 0, "Activate the option with this id")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty record draft in YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := form.DraftTemplate(validation.PipelineFields)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (defaults to stdout)")
	return cmd
}

func newSubmitCmd() *cobra.Command {
	var draftPath, photo, document string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate and submit a record draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			a, err := loginApp(cmd)
			if err != nil {
				return err
			}
			f, err := a.NewForm(client.NewFilePicker(photo, document))
			if err != nil {
				return err
			}

			if draftPath != "" {
				draft, err := readDraft(draftPath)
				if err != nil {
					return err
				}
				if err := f.Apply(draft); err != nil {
					return err
				}
			}

			if photo != "" {
				if notice := f.SelectAttachment(ctx, models.AttachmentPhoto); notice != nil {
					printNotice(out, *notice)
				}
			}
			if document != "" {
				if notice := f.SelectAttachment(ctx, models.AttachmentDocument); notice != nil {
					printNotice(out, *notice)
				}
			}

			if dryRun {
				payload, errs := f.Payload()
				if !errs.Empty() {
					printErrors(out, errs)
					return errors.New("draft is not valid")
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			}

			outcome, err := f.Submit(ctx)
			if err != nil {
				return err
			}
			printErrors(out, outcome.Errors)
			for _, n := range outcome.Notices {
				printNotice(out, n)
			}

			switch outcome.Status {
			case form.StatusSucceeded:
				fmt.Fprintf(out, "Record %s created\n", outcome.RecordID)
				return nil
			case form.StatusBlocked:
				return errors.New("draft is not valid")
			default:
				return errors.New("submission failed")
			}
		},
	}
	cmd.Flags().StringVarP(&draftPath, "draft", "d", "", "YAML draft to submit (see `pipelinectl template`)")
	cmd.Flags().StringVar(&photo, "photo", "", "Photo to attach")
	cmd.Flags().StringVar(&document, "doc", "", "Document to attach")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the payload instead of submitting")
	return cmd
}

func readDraft(path string) (*form.Draft, error) {
	if path == "-" {
		return form.LoadDraft(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return form.LoadDraft(f)
}

var optionGlyphs = map[models.OptionKind]string{
	models.OptionPipelineEntry:     "✚",
	models.OptionPipelineReview:    "✎",
	models.OptionUserManagement:    "☺",
	models.OptionStatusOverview:    "◔",
	models.OptionAuditLogs:         "☰",
	models.OptionApprovePromote:    "✔",
	models.OptionDataValidation:    "⚑",
	models.OptionStationOverview:   "⛽",
	models.OptionMySubmissions:     "✉",
	models.OptionScheduleVisits:    "◷",
	models.OptionStationLocator:    "⌖",
	models.OptionPipelineDashboard: "▦",
	models.OptionStationListings:   "≣",
	models.OptionReportsArchive:    "▤",
	models.OptionAnalytics:         "▲",
}

func glyphFor(kind models.OptionKind) string {
	if g, ok := optionGlyphs[kind]; ok {
		return g
	}
	return "•"
}

func printOptions(w io.Writer, options []models.MenuOption) {
	for _, o := range options {
		status := ""
		if !o.Enabled {
			status = " (coming soon)"
		}
		fmt.Fprintf(w, "  %s [%d] %s%s\n        %s\n", glyphFor(o.Kind), o.ID, o.Title, status, o.Subtitle)
	}
}

func printNotice(w io.Writer, n models.Notice) {
	fmt.Fprintf(w, "%s: %s\n", n.Title, n.Message)
}

func printErrors(w io.Writer, errs validation.ErrorSet) {
	for _, e := range errs.List() {
		fmt.Fprintf(w, "  %s: %s\n", e.Field, e.Message)
	}
}
