package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/lemmi/glubview"
	"github.com/pkg/errors"
)

func delspace(r rune) rune {
	if unicode.In(r, unicode.Latin, unicode.Digit) {
		return r
	} else {
		return '_'
	}
}

// fileName derives a view file name from a title.
func fileName(title string) string {
	return strings.NewReplacer(
		"ä", "ae",
		"ö", "oe",
		"ü", "ue",
		"ß", "ss").Replace(
		strings.Map(delspace, strings.ToLower(title)))
}

// skeleton returns the source of a new view.
func skeleton(title, layout string) string {
	var b strings.Builder
	if layout != "" {
		fmt.Fprintf(&b, "{{layout %q}}\n", layout)
	}
	fmt.Fprintf(&b, "{{setBlock \"title\" %q}}\n", title)
	b.WriteString("{{beginBlock \"head\"}}{{endBlock}}\n")
	b.WriteString("<h1>{{renderBlock \"title\"}}</h1>\n")
	return b.String()
}

func render(w io.Writer, views, ext, globalsFile, view string) error {
	r, err := glubview.New(views, glubview.WithFileExtension(ext))
	if err != nil {
		return err
	}

	if globalsFile != "" {
		f, err := os.Open(globalsFile)
		if err != nil {
			return errors.Wrapf(err, "Cannot open globals file: %q", globalsFile)
		}
		defer f.Close()
		g, err := glubview.ReadGlobals(f)
		if err != nil {
			return err
		}
		if err := r.AddGlobals(g); err != nil {
			return err
		}
	}
	r.AddExtension(glubview.NewMarkdown(nil))

	return r.RenderTo(w, view, nil)
}

func main() {
	views := flag.String("views", "views", "Set the view directory")
	ext := flag.String("ext", "html", "Set the view file extension")
	title := flag.String("title", "New Page", "Set the title")
	layout := flag.String("layout", "", "Set the layout of the view")
	name := flag.String("name", "", "Set the view name")
	simulate := flag.Bool("n", false, "Only show the result")
	edit := flag.Bool("e", false, "Open vim to edit the view")
	view := flag.String("render", "", "Render the view and print the result")
	globalsFile := flag.String("globals", "", "YAML file with global variables for -render")
	flag.Parse()

	if *view != "" {
		if err := render(os.Stdout, *views, *ext, *globalsFile, *view); err != nil {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
			os.Exit(1)
		}
		return
	}

	if *name == "" {
		*name = fileName(*title)
	}
	if filepath.Ext(*name) == "" && *ext != "" {
		*name += "." + strings.TrimPrefix(*ext, ".")
	}
	path := filepath.Join(*views, *name)
	src := skeleton(*title, *layout)

	if !*simulate {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			panic(err)
		}

		viewfile, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			panic(err)
		}
		defer viewfile.Close()

		if _, err := viewfile.WriteString(src); err != nil {
			panic(err)
		}
	}
	fmt.Println(path)
	fmt.Print(src)

	if *edit {
		vimpath, err := exec.LookPath("vim")
		if err != nil {
			panic(err)
		}
		fmt.Printf("Found vim in %q\n", vimpath)
		cmd := exec.Command(vimpath, path)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			fmt.Println(err)
		}
	}
}
