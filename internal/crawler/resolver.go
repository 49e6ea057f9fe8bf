package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"nfse/internal"
)

const (
	xmlURLMarker = "/Download/NFSe/"
	pdfURLMarker = "/Download/DANFSe/"
)

// resolveRow opens the action popup of one valid row and extracts its
// download links. A nil bundle means the row could not be addressed at
// all; the caller skips it without aborting the page.
func (c *Crawler) resolveRow(set internal.DocumentSet, page, row int, baseDir string) *internal.LinkBundle {
	rowHTML, err := c.drv.Eval(jsRowHTML, row)
	if err != nil {
		return nil
	}
	html, _ := rowHTML.(string)
	if html == "" {
		return nil
	}

	situation, number := parseRowInfo(html)

	xmlURL, pdfURL := "", ""
	for attempt := 0; attempt < 2; attempt++ {
		clicked, err := c.drv.Eval(jsClickTrigger, row, attempt == 1)
		if err != nil || clicked != true {
			return nil
		}
		if attempt == 1 {
			time.Sleep(200 * time.Millisecond)
		}

		if err := c.drv.WaitElement("div.popover", time.Duration(c.cfg.PopupWaitMs)*time.Millisecond); err != nil {
			continue
		}
		popHTML, err := c.drv.Eval(jsPopupHTML)
		if err != nil {
			break
		}
		if pop, _ := popHTML.(string); pop != "" {
			xmlURL, pdfURL = parsePopupLinks(pop, c.cfg.BaseURL)
		}
		break
	}

	_, _ = c.drv.Eval(jsDismissPopups)
	time.Sleep(time.Duration(c.cfg.ClickDelayMs) * time.Millisecond)

	prefix := internal.FilePrefix(set, page, row)
	bundle := &internal.LinkBundle{
		Page:      page,
		Row:       row,
		Number:    number,
		Situation: situation,
		XMLURL:    xmlURL,
		PDFURL:    pdfURL,
	}
	if xmlURL != "" {
		bundle.XMLPath = filepath.Join(baseDir, string(set), "XML", prefix+".xml")
	}
	if pdfURL != "" {
		bundle.PDFPath = filepath.Join(baseDir, string(set), "PDF", prefix+".pdf")
	}
	return bundle
}

// parseRowInfo derives the situation from the status icons and the
// displayed number from the first purely numeric cell among the first
// three columns.
func parseRowInfo(rowHTML string) (internal.Situation, string) {
	situation := internal.SituationActive
	number := ""

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rowHTML))
	if err != nil {
		return situation, number
	}

	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		src = strings.ToLower(src)
		if strings.Contains(src, "tb-") && strings.Contains(src, "cancelada") {
			situation = internal.SituationCancelled
			return false
		}
		return true
	})

	doc.Find("td").EachWithBreak(func(i int, td *goquery.Selection) bool {
		if i >= 3 {
			return false
		}
		text := strings.TrimSpace(td.Text())
		if text != "" && isDigits(text) {
			number = text
			return false
		}
		return true
	})

	return situation, number
}

func parsePopupLinks(popupHTML, baseURL string) (xmlURL, pdfURL string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(popupHTML))
	if err != nil {
		return "", ""
	}

	base, _ := url.Parse(baseURL)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" {
			return
		}
		abs := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				abs = base.ResolveReference(ref).String()
			}
		}
		if strings.Contains(abs, xmlURLMarker) && xmlURL == "" {
			xmlURL = abs
		}
		if strings.Contains(abs, pdfURLMarker) && pdfURL == "" {
			pdfURL = abs
		}
	})
	return xmlURL, pdfURL
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
