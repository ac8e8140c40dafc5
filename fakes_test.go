package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const testBase = "https://rolimons.test"

// fakeRow is one ownership table row. holder "" renders no holder link.
type fakeRow struct {
	uaid   string
	holder string
}

// fakeTable is a paginated ownership table whose widget only renders a
// window of page numbers around the current page.
type fakeTable struct {
	title string
	pages map[int][]fakeRow
	total int
}

// fakeBrowser is a Session over generated item pages and static pages. State
// changes caused by clicks are synchronous, so waits are decided at once.
type fakeBrowser struct {
	*docSession

	tables map[string]*fakeTable
	static map[string]string

	table     *fakeTable
	tabActive bool
	current   int

	visited    []string
	prevClicks int
	pageClicks int
	noTab      bool
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		docSession: newDocSession(nil, zerolog.Nop()),
		tables:     map[string]*fakeTable{},
		static:     map[string]string{},
	}
}

func (b *fakeBrowser) addItem(id string, t *fakeTable) Item {
	item := newItem(testBase, id)
	b.tables[item.DetailURL] = t
	return item
}

func (b *fakeBrowser) Navigate(_ context.Context, url string) error {
	b.visited = append(b.visited, url)
	if t, ok := b.tables[url]; ok {
		b.table, b.tabActive, b.current = t, false, 1
		return b.render()
	}
	b.table = nil
	page, ok := b.static[url]
	if !ok {
		return fmt.Errorf("fake browser: no page at %s", url)
	}
	return b.load(page)
}

func (b *fakeBrowser) Click(ctx context.Context, el Element) error {
	if b.table == nil {
		return fmt.Errorf("fake browser: nothing clickable")
	}
	href, _ := el.Attr(ctx, "href")
	idx, _ := el.Attr(ctx, "data-dt-idx")
	label, _ := el.Text(ctx)

	switch {
	case href == "#all_copies_table_container":
		b.tabActive = true
	case idx == "0":
		b.prevClicks++
		if b.current > 1 {
			b.current--
		}
	default:
		n, err := strconv.Atoi(strings.TrimSpace(label))
		if err != nil {
			return fmt.Errorf("fake browser: unknown control %q", label)
		}
		b.pageClicks++
		b.current = n
	}
	return b.render()
}

func (b *fakeBrowser) window() []int {
	set := map[int]bool{1: true, b.table.total: true}
	for p := b.current - 1; p <= b.current+1; p++ {
		if p >= 1 && p <= b.table.total {
			set[p] = true
		}
	}
	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (b *fakeBrowser) render() error {
	t := b.table
	var sb strings.Builder
	sb.WriteString("<html><body>")
	fmt.Fprintf(&sb, `<h1 class="page_title mb-0">%s</h1>`, t.title)
	if !b.noTab {
		sb.WriteString(`<a href="#all_copies_table_container">All Copies</a>`)
	}
	if b.tabActive {
		sb.WriteString(`<table id="all_copies_table"><tbody>`)
		for _, r := range t.pages[b.current] {
			sb.WriteString("<tr>")
			if r.uaid != "" {
				fmt.Fprintf(&sb, `<td><a href="/uaid/%s">%s</a></td>`, r.uaid, r.uaid)
			} else {
				sb.WriteString("<td></td>")
			}
			if r.holder != "" {
				fmt.Fprintf(&sb, `<td><a href="/player/%s">%s</a></td>`, r.holder, r.holder)
			} else {
				sb.WriteString("<td>-</td>")
			}
			sb.WriteString("</tr>")
		}
		sb.WriteString(`</tbody></table>`)

		sb.WriteString(`<div id="all_copies_table_paginate"><ul class="pagination">`)
		sb.WriteString(`<li class="paginate_button page-item previous"><a class="page-link" data-dt-idx="0">Previous</a></li>`)
		for i, p := range b.window() {
			class := "paginate_button page-item"
			if p == b.current {
				class += " active"
			}
			fmt.Fprintf(&sb, `<li class="%s"><a class="page-link" data-dt-idx="%d">%d</a></li>`, class, i+1, p)
		}
		sb.WriteString(`<li class="paginate_button page-item next"><a class="page-link" data-dt-idx="98">Next</a></li>`)
		sb.WriteString(`</ul></div>`)
	}
	sb.WriteString("</body></html>")
	return b.load(sb.String())
}

// mapFetcher serves static pages from memory and records every fetch.
type mapFetcher struct {
	pages map[string]string
	hits  []string
}

func (f *mapFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.hits = append(f.hits, url)
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("get %s: received non-200 status: 404", url)
	}
	return page, nil
}

func (f *mapFetcher) count(url string) int {
	n := 0
	for _, h := range f.hits {
		if h == url {
			n++
		}
	}
	return n
}

// recordingSink keeps every embed it is given.
type recordingSink struct {
	embeds []*discordgo.MessageEmbed
	err    error
}

func (r *recordingSink) Deliver(_ context.Context, e *discordgo.MessageEmbed) error {
	r.embeds = append(r.embeds, e)
	return r.err
}

func uaidPage(holders ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><table>")
	for _, h := range holders {
		fmt.Fprintf(&sb, `<tr><td><a href="/player/%s">%s</a></td></tr>`, h, h)
	}
	sb.WriteString("</table></body></html>")
	return sb.String()
}

func profileWithAvatar(src string) string {
	return fmt.Sprintf(`<html><body><img class="mx-auto d-block w-100 h-100" src="%s"></body></html>`, src)
}

func uaidURL(id string) string  { return testBase + "/uaid/" + id }
func playerURL(n string) string { return testBase + "/player/" + n }
func avatarURL(n string) string { return "https://tr.rbxcdn.com/" + n + "/150/150/AvatarHeadshot/Png" }
