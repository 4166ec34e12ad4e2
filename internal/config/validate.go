package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// structValidator reports field paths by yaml key, so messages match
// what the user actually typed in the file.
func structValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// NormalizeAndValidate resolves derived defaults (paths, port), trims
// list fields and checks the whole config. The returned copy is the one
// to run with; the input is not modified.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Scrape.Terms = trimList(out.Scrape.Terms)
	out.Scrape.EmailAlert.SubjectAny = trimList(out.Scrape.EmailAlert.SubjectAny)

	// Derived defaults fill in before the struct rules run.
	if out.App.DataDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			res.addErr("app.data_dir is empty and the user config dir is unavailable: %v", err)
		}
		out.App.DataDir = dir
	}
	if out.App.DataDir != "" {
		if out.Cache.Dir == "" {
			out.Cache.Dir = filepath.Join(out.App.DataDir, "cache")
		}
		if out.Store.Path == "" {
			out.Store.Path = filepath.Join(out.App.DataDir, "jobqst.db")
		}
		if out.Profile == "" {
			out.Profile = filepath.Join(out.App.DataDir, "profile.yaml")
		}
	}
	if out.Serve.Port == 0 {
		out.Serve.Port = Default().Serve.Port
	}
	// The IMAP addr also names the keychain account, so it must resolve
	// to the same value everywhere it is read.
	if out.Scrape.EmailAlert.Addr == "" {
		out.Scrape.EmailAlert.Addr = Default().Scrape.EmailAlert.Addr
	}

	if err := structValidator().Struct(&out); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				path := strings.TrimPrefix(fe.Namespace(), "Config.")
				res.addErr("%s fails the %q rule", path, fe.Tag())
			}
		} else {
			res.addErr("config: %v", err)
		}
	}

	// ---- Cross-field rules ----

	sc := &out.Scrape
	anySource := sc.Eluta.Enabled || sc.Greenhouse.Enabled || sc.Lever.Enabled ||
		sc.RSSFeed.Enabled || sc.EmailAlert.Enabled
	if !anySource {
		res.addErr("no sources enabled: turn on at least one of scrape.eluta, greenhouse, lever, rssfeed or email_alert")
	}

	// Email alerts carry their own search; everything else pairs with terms.
	termDriven := sc.Eluta.Enabled || sc.Greenhouse.Enabled || sc.Lever.Enabled || sc.RSSFeed.Enabled
	if termDriven && len(sc.Terms) == 0 {
		res.addErr("scrape.terms is empty but a term-driven source is enabled")
	}
	if len(sc.Terms) > 20 {
		res.addWarn("scrape.terms has %d entries; every term multiplies the scrape fan-out.", len(sc.Terms))
	}

	if sc.Greenhouse.Enabled && len(sc.Greenhouse.Companies) == 0 {
		res.addErr("scrape.greenhouse needs at least one company when enabled")
	}
	if sc.Lever.Enabled && len(sc.Lever.Companies) == 0 {
		res.addErr("scrape.lever needs at least one company when enabled")
	}
	if sc.RSSFeed.Enabled && len(sc.RSSFeed.Feeds) == 0 {
		res.addErr("scrape.rssfeed needs at least one feed when enabled")
	}

	if sc.EmailAlert.Enabled {
		if strings.TrimSpace(sc.EmailAlert.Username) == "" {
			res.addErr("scrape.email_alert.username is required when email alerts are enabled")
		}
		if len(sc.EmailAlert.SubjectAny) == 0 {
			res.addWarn("scrape.email_alert.subject_any is empty; every message in the mailbox will be parsed.")
		}
	}

	if s := out.Dedup.TitleSimilarity; s > 0 && s < 0.7 {
		res.addWarn("dedup.title_similarity %.2f is low; distinct roles may merge.", s)
	}
	if s := out.Dedup.CompanySimilarity; s > 0 && s < 0.6 {
		res.addWarn("dedup.company_similarity %.2f is low; unrelated companies may merge.", s)
	}

	w := out.Rank
	if w.SkillsWeight <= 0 || w.KeywordsWeight <= 0 || w.ExperienceWeight <= 0 {
		res.addWarn("rank weights incomplete; the built-in blend will be used.")
	}

	if out.Analyze.Backend == "local" && strings.TrimSpace(out.Analyze.Model) == "" {
		res.addErr("analyze.model is required for the local backend")
	}

	if s := strings.TrimSpace(out.Serve.Schedule); s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			res.addErr("serve.schedule: %v", err)
		}
		out.Serve.Schedule = s
	}

	return out, res
}
