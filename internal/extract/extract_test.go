package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for ResponseExtractor:
// - Unwraps a fenced block and keeps the code only
// - Prefers the last fenced block when several are present
// - Finds a start marker in unfenced text and trims leading prose
// - Trims trailing prose past the balanced top-level close
// - Validation failures substitute the placeholder with IsFallback
// - Text with neither marker nor fence falls back, naming expectedName
// - Extraction is idempotent on its own output
// - Fallback stubs name the uncovered methods

const validTest = `package com.example;

import org.junit.jupiter.api.Test;
import static org.junit.jupiter.api.Assertions.assertEquals;

public class CalculatorTest {

    @Test
    void testAdd() {
        assertEquals(3, new Calculator().add(1, 2));
    }
}`

func TestExtract_FencedBlock(t *testing.T) {
	t.Parallel()

	raw := "Sure! Here is your test:\n```java\n" + validTest + "\n```\nLet me know if you need more."
	got := Extract(raw, "Calculator")

	assert.False(t, got.IsFallback)
	assert.Equal(t, validTest, got.Text)
}

func TestExtract_PrefersLastFencedBlock(t *testing.T) {
	t.Parallel()

	decoy := "```java\n// example only\nSystem.out.println(1);\n```"
	raw := "First, an example:\n" + decoy + "\nAnd the real answer:\n```java\n" + validTest + "\n```"
	got := Extract(raw, "Calculator")

	assert.False(t, got.IsFallback)
	assert.Equal(t, validTest, got.Text)
	assert.NotContains(t, got.Text, "example only")
}

func TestExtract_UnfencedWithLeadingProse(t *testing.T) {
	t.Parallel()

	raw := "Here is the test class you asked for:\n\n" + validTest
	got := Extract(raw, "Calculator")

	assert.False(t, got.IsFallback)
	assert.Equal(t, validTest, got.Text)
}

func TestExtract_TrimsTrailingProse(t *testing.T) {
	t.Parallel()

	raw := validTest + "\n\nThis test covers the add method. Happy testing!"
	got := Extract(raw, "Calculator")

	assert.False(t, got.IsFallback)
	assert.Equal(t, validTest, got.Text)
	assert.NotContains(t, got.Text, "Happy testing")
}

func TestExtract_ValidationFailure(t *testing.T) {
	t.Parallel()

	// plausible Java, wrong framework and wrong class name
	raw := "```java\nimport org.junit.Test;\n\npublic class SomethingElse {\n  @Test public void t() {}\n}\n```"
	got := Extract(raw, "Calculator")

	assert.True(t, got.IsFallback)
	assert.Contains(t, got.Text, "class CalculatorTest")
}

func TestExtract_NoMarkerNoFence(t *testing.T) {
	t.Parallel()

	got := Extract("I cannot help with that request.", "Calculator")

	assert.True(t, got.IsFallback)
	assert.NotEmpty(t, got.Text)
	assert.Contains(t, got.Text, "Calculator")
}

func TestExtract_Idempotent(t *testing.T) {
	t.Parallel()

	first := Extract("```java\n"+validTest+"\n```", "Calculator")
	second := Extract(first.Text, "Calculator")

	assert.Equal(t, first.Text, second.Text)
	assert.False(t, second.IsFallback)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"valid", validTest, true},
		{"too short", "@Test", false},
		{"junit4 import", strings.ReplaceAll(validTest, "org.junit.jupiter.api", "org.junit"), false},
		{"wrong class name", strings.ReplaceAll(validTest, "CalculatorTest", "OtherTest"), false},
		{"no test annotation", strings.ReplaceAll(validTest, "@Test", ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Validate(tt.text, "Calculator"))
		})
	}
}

func TestFallback_StubsPerMethod(t *testing.T) {
	t.Parallel()

	text := Fallback("Order", []string{"place", "cancel"})

	require.Contains(t, text, "public class OrderTest")
	assert.Contains(t, text, "void testPlace()")
	assert.Contains(t, text, "void testCancel()")
	assert.Contains(t, text, "@Disabled")
	assert.True(t, Validate(text, "Order"))
}

func TestFallback_EmptyName(t *testing.T) {
	t.Parallel()

	text := Fallback("", nil)
	assert.Contains(t, text, "class UnknownUnitTest")
}
