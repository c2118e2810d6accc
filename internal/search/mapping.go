package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/es"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the mapping for content documents. Prose is
// analyzed as Spanish; ids are kept as exact keywords for filtering.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = es.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = es.AnalyzerName
	textFieldMapping.Store = true
	textFieldMapping.IncludeTermVectors = true // highlighting
	docMapping.AddFieldMappingsAt("text", textFieldMapping)

	for _, field := range []string{"book_title", "chapter_title", "artisan_name"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = es.AnalyzerName
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	for _, field := range []string{"book_id", "chapter_id", "artisan_id"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
