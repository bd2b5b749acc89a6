package mangadex

import (
	"strings"

	"github.com/brogergvhs/mangadex-dl/internal/record"
)

// Records is the view of saved pages the planner and page loop need.
type Records interface {
	Size() int
	RecordAt(i int) record.Record
	ContainsLocator(pageURL string) bool
}

// StartChapterIndex picks the chapter the page loop starts from. Chapters
// after it in the list are older and treated as fully saved.
//
// The first chapter, in list order, whose URL prefixes any saved page URL
// wins: a partially saved chapter is rescanned for new pages. With no
// match, no records or checkAll the oldest chapter is returned. An empty
// list gives 0.
func StartChapterIndex(records Records, chs []ChapterDescriptor, checkAll bool) int {
	last := max(len(chs)-1, 0)
	if checkAll || len(chs) == 0 || records == nil {
		return last
	}

	size := records.Size()
	for i, ch := range chs {
		for j := 0; j < size; j++ {
			if strings.HasPrefix(records.RecordAt(j).PageURL, ch.URL) {
				return i
			}
		}
	}

	return last
}
