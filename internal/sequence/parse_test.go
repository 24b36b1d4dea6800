package sequence

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	if got := Normalize("  atc g\ntu "); got != "ATCGTU" {
		t.Errorf("Normalize() = %q, want ATCGTU", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("ATCGATCGAT"); err != nil {
		t.Errorf("Validate(valid) error = %v", err)
	}
	if err := Validate(""); !errors.Is(err, ErrEmpty) {
		t.Errorf("Validate(empty) = %v, want ErrEmpty", err)
	}
	if err := Validate("ATCGXTCGAT"); !errors.Is(err, ErrInvalidChar) {
		t.Errorf("Validate(invalid char) = %v, want ErrInvalidChar", err)
	}
	if err := Validate("ATCG"); !errors.Is(err, ErrTooShort) {
		t.Errorf("Validate(short) = %v, want ErrTooShort", err)
	}
}

func TestFromUploadFASTA(t *testing.T) {
	content := []byte(">seq1 promoter region\natcgatcgat\nATCGATCGAT\n>seq2\nGGGGCCCCAA\n")
	seq, err := FromUpload(content, "input.fasta")
	if err != nil {
		t.Fatalf("FromUpload() error = %v", err)
	}
	if seq != "ATCGATCGATATCGATCGAT" {
		t.Errorf("FromUpload() = %q, want first record joined and upper-cased", seq)
	}
}

func TestFromUploadFASTASkipsInvalidRecords(t *testing.T) {
	content := []byte(">bad\nNNNNNNNNNN\n>good\nATCGATCGAT\n")
	seq, err := FromUpload(content, "input.fna")
	if err != nil {
		t.Fatalf("FromUpload() error = %v", err)
	}
	if seq != "ATCGATCGAT" {
		t.Errorf("FromUpload() = %q, want ATCGATCGAT", seq)
	}
}

func TestFromUploadCSV(t *testing.T) {
	content := []byte("name,sequence\npromA,atcgatcgat\npromB,GGGGCCCCAA\n")
	seq, err := FromUpload(content, "batch.csv")
	if err != nil {
		t.Fatalf("FromUpload() error = %v", err)
	}
	if seq != "ATCGATCGAT" {
		t.Errorf("FromUpload() = %q, want ATCGATCGAT", seq)
	}
}

func TestFromUploadCSVMissingColumn(t *testing.T) {
	content := []byte("name,dna\npromA,ATCGATCGAT\n")
	if _, err := FromUpload(content, "batch.csv"); err == nil {
		t.Error("FromUpload() without sequence column should fail")
	}
}

func TestFromUploadUnsupportedExtension(t *testing.T) {
	if _, err := FromUpload([]byte("ATCGATCGAT"), "input.txt"); err == nil {
		t.Error("FromUpload() with unsupported extension should fail")
	}
}

func TestFromUploadEmptyFile(t *testing.T) {
	if _, err := FromUpload(nil, "input.fasta"); !errors.Is(err, ErrNoSequences) {
		t.Errorf("FromUpload(empty) = %v, want ErrNoSequences", err)
	}
}
