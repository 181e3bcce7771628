package engine

import "github.com/dgallion1/pagecraft/internal/document"

// themeCSS is the fixed blue stylesheet.
const themeCSS = `
    body { background:#f2f8ff; font-family: 'Poppins', Arial, sans-serif; color:#0b2545; padding:20px; }
    h1,h2,h3 { color:#023e8a; }
    table { border-collapse: collapse; width:100%; margin-top:10px; }
    table, th, td { border: 1px solid #cddff6; padding:8px; text-align:left; }
    a { color:#023e8a; }
    `

// ApplyTheme appends the theme stylesheet to <head>, creating <head> when the
// document has none. Calling it twice appends two <style> blocks.
func ApplyTheme(doc *document.Document) {
	style := document.NewElement("style")
	document.AppendChild(style, document.NewText(themeCSS))
	document.AppendChild(doc.EnsureHead(), style)
}
