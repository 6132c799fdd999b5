package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
)

// blockFrame is one pending block in the iterative tree walk.
type blockFrame struct {
	block notionapi.Block
	depth int
}

// renderPage walks the page's block tree iteratively and lays the text out
// as markdown. The walk is depth-first with an explicit stack; depth is
// bounded so a pathological page cannot recurse without limit.
func (r *Reader) renderPage(ctx context.Context, page *notionapi.Page) (string, error) {
	var b strings.Builder

	if title := pageTitle(page); title != "" {
		b.WriteString("# ")
		b.WriteString(title)
		b.WriteString("\n")
	}

	roots, err := r.listChildren(ctx, notionapi.BlockID(page.ID))
	if err != nil {
		return "", err
	}

	stack := make([]blockFrame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, blockFrame{block: roots[i]})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if line := renderBlock(frame.block, frame.depth); line != "" {
			b.WriteString("\n")
			b.WriteString(line)
			b.WriteString("\n")
		}

		if frame.block.GetHasChildren() && frame.depth < maxBlockDepth {
			children, err := r.listChildren(ctx, frame.block.GetID())
			if err != nil {
				return "", err
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, blockFrame{block: children[i], depth: frame.depth + 1})
			}
		}
	}

	return b.String(), nil
}

// renderBlock converts one block to markdown. Unknown block kinds render
// as nothing: the page syncs with whatever text could be extracted.
func renderBlock(block notionapi.Block, depth int) string {
	indent := strings.Repeat("  ", depth)

	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return emptyOr(indent, plainText(b.Paragraph.RichText))
	case *notionapi.Heading1Block:
		return emptyOr(indent+"# ", plainText(b.Heading1.RichText))
	case *notionapi.Heading2Block:
		return emptyOr(indent+"## ", plainText(b.Heading2.RichText))
	case *notionapi.Heading3Block:
		return emptyOr(indent+"### ", plainText(b.Heading3.RichText))
	case *notionapi.BulletedListItemBlock:
		return emptyOr(indent+"- ", plainText(b.BulletedListItem.RichText))
	case *notionapi.NumberedListItemBlock:
		return emptyOr(indent+"1. ", plainText(b.NumberedListItem.RichText))
	case *notionapi.ToDoBlock:
		box := "- [ ] "
		if b.ToDo.Checked {
			box = "- [x] "
		}
		return emptyOr(indent+box, plainText(b.ToDo.RichText))
	case *notionapi.ToggleBlock:
		return emptyOr(indent, plainText(b.Toggle.RichText))
	case *notionapi.QuoteBlock:
		return emptyOr(indent+"> ", plainText(b.Quote.RichText))
	case *notionapi.CalloutBlock:
		return emptyOr(indent+"> ", plainText(b.Callout.RichText))
	case *notionapi.CodeBlock:
		code := plainText(b.Code.RichText)
		if code == "" {
			return ""
		}
		return indent + "```" + b.Code.Language + "\n" + code + "\n" + indent + "```"
	case *notionapi.ChildPageBlock:
		return emptyOr(indent+"Subpage: ", b.ChildPage.Title)
	case *notionapi.DividerBlock:
		return indent + "---"
	default:
		return ""
	}
}

// plainText concatenates the plain text of a rich text run.
func plainText(richText []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range richText {
		b.WriteString(rt.PlainText)
	}
	return strings.TrimSpace(b.String())
}

// emptyOr prefixes non-empty text, so empty blocks render as nothing.
func emptyOr(prefix, text string) string {
	if text == "" {
		return ""
	}
	return prefix + text
}
