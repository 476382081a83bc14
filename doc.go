// Package glubview renders html/template views from a directory and composes
// them with layouts through named blocks.
//
// A view requests a layout with the layout function. Its output then becomes
// the block "content" and the layout is rendered next, with no params but the
// globals and all blocks defined so far:
//
//	{{/* views/page.html */}}
//	{{layout "base"}}{{setBlock "title" "Hi"}}<p>Hello {{.name}}</p>
//
//	{{/* views/base.html */}}
//	<title>{{renderBlock "title"}}</title>{{renderBlock "content"}}
//
// Blocks can also be captured from output:
//
//	{{beginBlock "sidebar"}}<ul>...</ul>{{endBlock}}
//
// The first definition of a block wins. A view that is already being rendered
// cannot be entered again through layout or insert.
//
// Functions of registered extensions are available by name or through call.
// call replaces the html/template builtin: a string names an extension
// function, any other value is called like the builtin does:
//
//	{{call "upper" .title}}
//	{{call .fn 1 2}}
//
//	r, err := glubview.New("views")
//	if err != nil {
//	    // handle error
//	}
//	r.AddGlobal("siteName", "Acme")
//	r.AddExtension(glubview.NewMarkdown(backend.Dir("pages")))
//
//	out, err := r.Render("page", map[string]any{"name": "World"})
package glubview
