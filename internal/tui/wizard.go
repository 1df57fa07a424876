// Package tui is the terminal front-end of the installation wizard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"

	"github.com/windevexpert/windevexpert/internal/domain/install"
	"github.com/windevexpert/windevexpert/internal/wizard"
)

// ErrAborted is returned when the operator leaves the wizard.
var ErrAborted = errors.New("installation abandonnée")

// Options configures the terminal wizard.
type Options struct {
	Accessible bool
	Out        io.Writer
	// ExportPath receives the redacted configuration when the operator asks
	// for it.
	ExportPath string
}

type app struct {
	r    *wizard.Runner
	opts Options
}

// Run walks the operator through the four wizard phases until Done, driving
// the executor behind r.
func Run(ctx context.Context, r *wizard.Runner, opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	if opts.ExportPath == "" {
		opts.ExportPath = install.ExportFilename
	}
	a := &app{r: r, opts: opts}
	fmt.Fprintln(opts.Out, titleStyle.Render("Installation de WinDevExpert"))

	for {
		s := r.State()
		var err error
		switch s.Phase {
		case wizard.Configuring:
			err = a.configure(ctx)
		case wizard.Validating:
			err = a.validate(ctx)
		case wizard.Installing:
			err = a.install(ctx)
		case wizard.Done:
			return a.done(ctx)
		}
		if err != nil {
			return err
		}
	}
}

func (a *app) runForm(groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(a.opts.Accessible).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

func (a *app) spin(ctx context.Context, title string, action func(context.Context) error) error {
	err := spinner.New().
		Title(title).
		Accessible(a.opts.Accessible).
		Output(a.opts.Out).
		Context(ctx).
		ActionWithErr(action).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

func (a *app) choose(title string, options ...huh.Option[string]) (string, error) {
	var choice string
	err := a.runForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(title).
			Options(options...).
			Value(&choice),
	))
	return choice, err
}

func (a *app) configure(ctx context.Context) error {
	base := a.r.State().Config
	v := valuesFrom(base)
	if v.DBType == "" {
		v.DBType = string(install.DBSQLite)
	}

	dbOptions := make([]huh.Option[string], 0, len(install.ValidDBTypes))
	for _, t := range install.ValidDBTypes {
		dbOptions = append(dbOptions, huh.NewOption(string(t), string(t)))
	}
	sqlite := func() bool { return v.DBType == string(install.DBSQLite) }

	err := a.runForm(
		huh.NewGroup(
			huh.NewInput().
				Title("URL du site").
				Placeholder("https://www.exemple.fr").
				Value(&v.SiteURL).
				Validate(func(s string) error {
					if !install.IsAbsoluteURL(strings.TrimSpace(s)) {
						return errors.New("URL absolue requise (http ou https)")
					}
					return nil
				}),
			huh.NewInput().
				Title("Email administrateur").
				Value(&v.AdminEmail).
				Validate(func(s string) error {
					if !install.IsEmail(strings.TrimSpace(s)) {
						return errors.New("adresse email invalide")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Base de données").
				Options(dbOptions...).
				Value(&v.DBType),
		),
		huh.NewGroup(
			huh.NewInput().Title("Fichier SQLite").Placeholder(install.DefaultSQLiteFile).Value(&v.DBName),
		).WithHideFunc(func() bool { return !sqlite() }),
		huh.NewGroup(
			huh.NewInput().Title("Hôte").Placeholder("localhost").Value(&v.DBHost),
			huh.NewInput().Title("Port").Value(&v.DBPort).Validate(validatePort),
			huh.NewInput().Title("Nom de la base").Value(&v.DBName).Validate(huh.ValidateNotEmpty()),
			huh.NewInput().Title("Utilisateur").Value(&v.DBUser).Validate(huh.ValidateNotEmpty()),
			huh.NewInput().Title("Mot de passe").EchoMode(huh.EchoModePassword).Value(&v.DBPassword),
		).WithHideFunc(sqlite),
		huh.NewGroup(
			huh.NewInput().Title("Serveur SMTP (optionnel)").Value(&v.SMTPHost),
			huh.NewInput().Title("Port SMTP").Placeholder("587").Value(&v.SMTPPort).Validate(validatePort),
			huh.NewInput().Title("Utilisateur SMTP").Value(&v.SMTPUser),
			huh.NewInput().Title("Mot de passe SMTP").EchoMode(huh.EchoModePassword).Value(&v.SMTPPassword),
			huh.NewInput().Title("Expéditeur").Value(&v.SMTPFrom),
		),
	)
	if err != nil {
		return err
	}

	c := v.apply(base)
	if err := a.r.Edit(c); err != nil {
		return err
	}

	if c.UsesNetworkDB() {
		test := true
		if err := a.runForm(huh.NewGroup(
			huh.NewConfirm().Title("Tester la connexion à la base de données ?").Value(&test),
		)); err != nil {
			return err
		}
		if test {
			var res install.StepResult
			err := a.spin(ctx, "Connexion à la base de données…", func(ctx context.Context) error {
				var err error
				res, err = a.r.TestConnection(ctx, c)
				return err
			})
			switch {
			case err != nil:
				a.printError(err)
			case res.Success:
				fmt.Fprintf(a.opts.Out, "%s %s\n", resultBadge(true), res.Message)
			default:
				fmt.Fprintf(a.opts.Out, "%s %s\n", resultBadge(false), res.Message)
			}
		}
	}

	fmt.Fprintln(a.opts.Out, panelStyle.Render(summary(c)))
	err = a.spin(ctx, "Vérification de l'environnement…", func(ctx context.Context) error {
		_, err := a.r.Submit(ctx, c)
		return err
	})
	var ferr *install.FieldError
	if errors.As(err, &ferr) {
		fmt.Fprintln(a.opts.Out, errorStyle.Render(ferr.Message))
		return nil
	}
	if err != nil && !errors.Is(err, ErrAborted) {
		// Validating with an error panel; the next screen offers a retry.
		a.printError(err)
		return nil
	}
	return err
}

func (a *app) validate(ctx context.Context) error {
	s := a.r.State()
	if s.Validation != nil {
		fmt.Fprintln(a.opts.Out, renderValidation(*s.Validation))
	}

	options := []huh.Option[string]{}
	if s.CanInstall() {
		options = append(options, huh.NewOption("Lancer l'installation", "install"))
	}
	options = append(options,
		huh.NewOption("Relancer la validation", "retry"),
		huh.NewOption("Modifier la configuration", "back"),
		huh.NewOption("Exporter la configuration", "export"),
		huh.NewOption("Quitter", "quit"),
	)
	choice, err := a.choose("Étape suivante", options...)
	if err != nil {
		return err
	}

	switch choice {
	case "install":
		return a.install(ctx)
	case "retry":
		err := a.spin(ctx, "Vérification de l'environnement…", func(ctx context.Context) error {
			_, err := a.r.Validate(ctx)
			return err
		})
		if err != nil && !errors.Is(err, ErrAborted) {
			a.printError(err)
			return nil
		}
		return err
	case "back":
		return a.r.Back()
	case "export":
		a.export()
		return nil
	}
	return ErrAborted
}

func (a *app) install(ctx context.Context) error {
	err := a.spin(ctx, "Installation en cours…", a.r.Install)
	fmt.Fprint(a.opts.Out, renderLog(a.r.State().Log))
	if err == nil || errors.Is(err, ErrAborted) {
		return err
	}

	a.printError(err)
	choice, ferr := a.choose("L'installation est interrompue",
		huh.NewOption("Réessayer l'étape en échec", "retry"),
		huh.NewOption("Quitter", "quit"),
	)
	if ferr != nil {
		return ferr
	}
	if choice != "retry" {
		return ErrAborted
	}
	return nil
}

func (a *app) done(ctx context.Context) error {
	fmt.Fprintln(a.opts.Out, successStyle.Render("Installation terminée."))
	if creds := adminCredentials(a.r.State().Log); creds != "" {
		fmt.Fprintln(a.opts.Out, panelStyle.Render(creds+"\n\nConservez ce mot de passe, il ne sera plus affiché."))
	}

	var export, cleanup bool
	err := a.runForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Exporter la configuration (secrets masqués) ?").
			Value(&export),
		huh.NewConfirm().
			Title("Supprimer l'installateur ? Cette action est irréversible.").
			Affirmative("Oui, supprimer").
			Negative("Non").
			Value(&cleanup),
	))
	if err != nil {
		return err
	}
	if export {
		a.export()
	}
	if !cleanup {
		return nil
	}

	var res install.StepResult
	err = a.spin(ctx, "Suppression de l'installateur…", func(ctx context.Context) error {
		var err error
		res, err = a.r.Cleanup(ctx, cleanup)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.opts.Out, "%s %s\n", resultBadge(res.Success), res.Message)
	return nil
}

func (a *app) export() {
	data, err := a.r.Export()
	if err == nil {
		err = os.WriteFile(a.opts.ExportPath, data, 0o600)
	}
	if err != nil {
		a.printError(err)
		return
	}
	fmt.Fprintf(a.opts.Out, "%s Configuration exportée dans %s\n", resultBadge(true), a.opts.ExportPath)
}

func (a *app) printError(err error) {
	fmt.Fprintln(a.opts.Out, errorStyle.Render("Erreur : "+err.Error()))
}
