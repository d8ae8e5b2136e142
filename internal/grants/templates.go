package grants

// stageTemplates lists the required documents per stage, keyed by zero-based
// stage index. Names must stay byte-identical to the persisted data: the
// merge in MergeWithTemplate joins on exact string equality.
var stageTemplates = [StageCount][]string{
	{
		"契約書",
		"切結書",
		"領據",
		"計畫書",
		"第一期請款公文",
	},
	{
		"期中進度報告",
		"經費收支明細表",
		"領據",
		"第二期請款公文",
	},
	{
		"成果報告初稿",
		"經費收支明細表",
		"領據",
		"第三期請款公文",
	},
	{
		"結案成果報告",
		"經費收支結算表",
		"成果照片集",
		"領據",
		"尾款請款公文",
	},
}

// TemplateNames returns the document names for the stage at the given
// zero-based index. Out-of-range indexes return nil.
func TemplateNames(index int) []string {
	if index < 0 || index >= StageCount {
		return nil
	}
	return append([]string(nil), stageTemplates[index]...)
}

// NewStage synthesizes a fresh stage from the template at the zero-based index.
func NewStage(index int) Stage {
	names := TemplateNames(index)
	docs := make([]Document, len(names))
	for i, name := range names {
		docs[i] = Document{Name: name, Status: DocPlaceholder}
	}
	return Stage{
		Ordinal:    index + 1,
		Documents:  docs,
		FinalCheck: StageNotReceived,
	}
}
