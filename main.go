package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"prezo/deck"
)

const usageText = `PrezO turns a reference document into a PowerPoint deck styled
after an analyzed template.

Usage:
  prezo analyze  -template <file.pptx>
  prezo generate -template-id <id>
  prezo run      -document <file> -template-id <id> [-guidance <text>]
  prezo sessions [-limit <n>]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	app := NewApp()
	if err := app.Startup(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(app, os.Args[2:])
	case "generate":
		err = runGenerate(app, os.Args[2:])
	case "run":
		err = runPipeline(app, os.Args[2:])
	case "sessions":
		err = runSessions(app, os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usageText)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze(app *App, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	templatePath := fs.String("template", "", "path to the .pptx template")
	fs.Parse(args)

	if *templatePath == "" {
		return fmt.Errorf("-template is required")
	}

	meta, metaPath, err := app.AnalyzeTemplate(*templatePath)
	if err != nil {
		return err
	}

	fmt.Printf("Template:  %s (%s)\n", meta.TemplateName, meta.TemplateID)
	fmt.Printf("Slide:     %.2f x %.2f in\n", meta.SlideWidthInches, meta.SlideHeightInches)
	fmt.Printf("Layouts:   %d\n", len(meta.Layouts))
	for _, layout := range meta.Layouts {
		fmt.Printf("  [%d] %s (%d placeholders)\n", layout.LayoutIndex, layout.LayoutName, len(layout.Slots))
	}
	fmt.Printf("Metadata:  %s\n", metaPath)
	return nil
}

func runGenerate(app *App, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	templateID := fs.String("template-id", "", "ID of an analyzed template")
	fs.Parse(args)

	if *templateID == "" {
		return fmt.Errorf("-template-id is required")
	}

	mod, err := app.GenerateModule(*templateID)
	if err != nil {
		return err
	}

	fmt.Printf("Module generated for template %s\n", *templateID)
	for _, archetype := range deck.Archetypes() {
		b, _ := mod.Binding(archetype)
		fmt.Printf("  %-28s -> layout %d (%s, %s)\n", archetype, b.LayoutIndex, b.LayoutName, b.Source)
	}
	return nil
}

func runPipeline(app *App, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	documentPath := fs.String("document", "", "path to the reference document (.pdf, .docx, .txt)")
	templateID := fs.String("template-id", "", "ID of an analyzed template")
	guidance := fs.String("guidance", "", "optional guidance for the presentation")
	fs.Parse(args)

	if *documentPath == "" {
		return fmt.Errorf("-document is required")
	}
	if *templateID == "" {
		return fmt.Errorf("-template-id is required")
	}

	sessionID, result, err := app.RunPipeline(*documentPath, *templateID, *guidance)
	if sessionID != "" {
		fmt.Printf("Session:   %s\n", sessionID)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Deck:      %s (%d slides)\n", result.OutputPath, result.SlideCount)
	if len(result.ImagePrompts) > 0 {
		fmt.Printf("Prompts:   %s (%d visuals)\n", result.PromptsPath, len(result.ImagePrompts))
	}
	for _, m := range result.Stages {
		fmt.Printf("  %-20s %6dms\n", m.Name, m.DurationMS)
	}
	return nil
}

func runSessions(app *App, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	limit := fs.Int("limit", 20, "maximum sessions to list")
	fs.Parse(args)

	sessions, err := app.ListSessions(*limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tSTATUS\tTEMPLATE\tSLIDES\tDOCUMENT")
	for _, s := range sessions {
		created := time.UnixMilli(s.CreatedAt).Format("2006-01-02 15:04")
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", created, s.Status, s.TemplateID, s.SlideCount, s.DocumentPath)
	}
	return w.Flush()
}
