// Interactive setup that writes the server's .env file.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

const envPath = ".env"

func main() {
	if err := run(os.Stdin, os.Stdout, envPath); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "❌ Setup failed: %v\n", err)
		os.Exit(1)
	}
}

type prompter struct {
	in    *bufio.Reader
	out   io.Writer
	arrow *color.Color
}

func (p *prompter) ask(question, def string) (string, error) {
	p.arrow.Fprint(p.out, "  ▶ ")
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}
	answer, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// run asks for the provider, key, port and models and writes them to path.
func run(in io.Reader, out io.Writer, path string) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	p := &prompter{in: bufio.NewReader(in), out: out, arrow: green}

	cyan.Fprintln(out, "🤖 Insurance Assistant Setup")
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out)

	if _, err := os.Stat(path); err == nil {
		yellow.Fprintf(out, "  %s already exists.\n", path)
		answer, err := p.ask("Overwrite? [y/N]", "")
		if err != nil {
			return err
		}
		if strings.ToLower(answer) != "y" {
			fmt.Fprintln(out, "  Aborted.")
			return nil
		}
	}

	provider, err := p.ask("Completion provider (openai, anthropic, offline)", "openai")
	if err != nil {
		return err
	}
	provider = strings.ToLower(provider)
	env := map[string]string{"LLM_PROVIDER": provider}

	switch provider {
	case "openai":
		key, err := p.ask("OpenAI API key", "")
		if err != nil {
			return err
		}
		if key == "" {
			return errors.New("OPENAI_API_KEY is required, please run setup again")
		}
		env["OPENAI_API_KEY"] = key
		if base, err := p.ask("Custom OpenAI base URL (optional)", ""); err != nil {
			return err
		} else if base != "" {
			env["OPENAI_BASE_URL"] = base
		}
	case "anthropic":
		key, err := p.ask("Anthropic API key", "")
		if err != nil {
			return err
		}
		if key == "" {
			return errors.New("ANTHROPIC_API_KEY is required, please run setup again")
		}
		env["ANTHROPIC_API_KEY"] = key
	case "offline":
	default:
		return fmt.Errorf("unknown provider %q", provider)
	}

	defaultModel := "gpt-4o-mini"
	if provider == "anthropic" {
		defaultModel = "claude-3-5-haiku-latest"
	}
	questions := []struct{ key, question, def string }{
		{"PORT", "Server port", "3000"},
		{"PERSONAL_BOT_MODEL", "Personal Bot model", defaultModel},
		{"TATA_AIG_BOT_MODEL", "TATA AIG Bot model", defaultModel},
		{"PROFILE_PATH", "User profile file", "./user-profile.json"},
	}
	for _, q := range questions {
		v, err := p.ask(q.question, q.def)
		if err != nil {
			return err
		}
		env[q.key] = v
	}

	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Fprintln(out)
	green.Fprintf(out, "✅ Configuration saved to %s\n", path)
	fmt.Fprintln(out, "\n🚀 Start the server with:")
	fmt.Fprintln(out, "   go run ./cmd/server")
	fmt.Fprintf(out, "\n🌐 Then open http://localhost:%s in your browser\n", env["PORT"])
	return nil
}
