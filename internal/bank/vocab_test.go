package bank

import (
	"strings"
	"testing"
)

const sampleCSV = `word,meaning_ko,definition_en,pos,topic,cefr,kr_curriculum,freq_rank,gse,lexile,oxford3000,synonym,antonym,word_family,collocation,sentence_1,sentence_2,educational_value
apple,사과,a round fruit,noun,"food|fruit",A1,초등,12,22,200L-300L,A1,,,apples,eat an apple,I ate an apple.,,9
run,달리다,move fast on foot,verb,sports,A1,초등,30,25,,A1,sprint|jog,walk,running|runner,run fast,She can run fast.,He runs daily.,10
,빈단어,,noun,,A1,초등,1,,,,,,,,,,
ubiquitous,어디에나 있는,present everywhere,adjective,academic,C1,기타,8800,68,900L,,omnipresent,rare,,ubiquitous computing,Smartphones are ubiquitous now.,,8
`

func TestParseVocab(t *testing.T) {
	records, err := ParseVocab(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseVocab: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("parsed %d records, want 3 (blank word skipped)", len(records))
	}

	apple := records[0]
	if apple.Topic != "food" {
		t.Errorf("primary topic = %q, want food", apple.Topic)
	}
	if apple.FreqRank != 12 {
		t.Errorf("freq rank = %d, want 12", apple.FreqRank)
	}

	run := records[1]
	if len(run.Synonyms) != 2 || run.Synonyms[0] != "sprint" {
		t.Errorf("synonyms = %v, want [sprint jog]", run.Synonyms)
	}
	if len(run.Sentences) != 2 {
		t.Errorf("sentences = %d, want 2", len(run.Sentences))
	}
	if run.EducationalValue != 10 {
		t.Errorf("educational value = %d, want 10", run.EducationalValue)
	}

	ubi := records[2]
	if ubi.CEFR != "C1" || ubi.Curriculum != "기타" {
		t.Errorf("ubiquitous parsed as %s/%s", ubi.CEFR, ubi.Curriculum)
	}
}
