package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"unread", Unread(), false},
		{"all", All(0), false},
		{"all with limit", All(50), false},
		{"recent", Recent(7), false},
		{"recent zero days", Recent(0), true},
		{"recent negative days", Recent(-1), true},
		{"folder", Folder("sent"), false},
		{"folder empty", Folder("  "), true},
		{"search", Search("invoice"), false},
		{"search empty", Search(""), true},
		{"unknown kind", Spec{Kind: "bogus"}, true},
		{"negative limit", Spec{Kind: KindAll, Limit: -1}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignatureStability(t *testing.T) {
	// The same logical filter always hashes the same
	assert.Equal(t, Recent(7).Signature(), Recent(7).Signature())
	assert.Equal(t, Unread().Signature(), Spec{Kind: KindUnread}.Signature())

	// Zero-valued payload fields do not disturb the signature
	assert.Equal(t, Folder("sent").Signature(), Spec{Kind: KindFolder, Folder: "sent", Days: 0}.Signature())
}

func TestSignatureDistinguishesJobs(t *testing.T) {
	signatures := map[string]string{
		"unread":    Unread().Signature(),
		"all":       All(0).Signature(),
		"all-50":    All(50).Signature(),
		"recent-7":  Recent(7).Signature(),
		"recent-30": Recent(30).Signature(),
		"folder":    Folder("sent").Signature(),
		"search":    Search("invoice").Signature(),
	}

	seen := make(map[string]string)
	for name, sig := range signatures {
		require.Len(t, sig, 16, "signature length for %s", name)
		if prev, ok := seen[sig]; ok {
			t.Errorf("Filters %s and %s share a signature", name, prev)
		}
		seen[sig] = name
	}
}

func TestConstructorsTrimInput(t *testing.T) {
	assert.Equal(t, "sent", Folder("  sent ").Folder)
	assert.Equal(t, "invoice", Search(" invoice\n").Query)
}

func TestString(t *testing.T) {
	assert.Equal(t, "unread messages", Unread().String())
	assert.Equal(t, "messages from last 7 days", Recent(7).String())
	assert.Equal(t, `messages in folder "sent"`, Folder("sent").String())
	assert.Equal(t, `messages matching "invoice"`, Search("invoice").String())
	assert.Equal(t, "all messages (limit 10)", All(10).String())
}
