package cli_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/sitecms/internal/cli"
	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

func Test_Bare_Command_Prints_Usage_When_Invoked(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	exitCode := cli.Run(nil, &stdout, &stderr, []string{"cms"}, nil, nil)

	assert.Equal(t, 0, exitCode)
	assert.Empty(t, stderr.String())
	assert.Contains(t, stdout.String(), "cms - site content store admin")
	assert.Contains(t, stdout.String(), "--cwd")
	assert.Contains(t, stdout.String(), "page <slug>")
	assert.Contains(t, stdout.String(), "shell")
}

func Test_Unknown_Global_Flag_Fails_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--invalid-flag", "pages")

	assert.Contains(t, stderr, "unknown flag")
	assert.Contains(t, stderr, "Global flags:")
	assert.Contains(t, stderr, "--data-dir")
}

func Test_Empty_Data_Dir_Flag_Fails_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--data-dir=", "pages")

	assert.Contains(t, stderr, "--data-dir cannot be empty")
}

func Test_Unknown_Command_Fails_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("frobnicate")

	assert.Contains(t, stderr, "unknown command: frobnicate")
}

func Test_Pages_Lists_Required_Pages_When_Store_Empty(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	out := c.MustRun("pages")

	for _, slug := range cmsdb.DefaultRequiredPages {
		assert.Contains(t, out, slug)
	}

	assert.Contains(t, out, "Privacy Policy")

	var pages []cmsdb.Page
	c.ReadJSON("pages.json", &pages)
	assert.Len(t, pages, len(cmsdb.DefaultRequiredPages))
}

func Test_Reconcile_Warns_When_Routes_Dir_Unset(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, code := c.Run("reconcile")

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "7 pages (7 created by system)")
	assert.Contains(t, stderr, "warning: route discovery disabled")
}

func Test_Reconcile_Creates_Discovered_Pages_When_Routes_Dir_Set(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".sitecms.json", `{"routes_dir": "app", "required_pages": ["/"]}`)
	c.WriteFile("app/page.tsx", "")
	c.WriteFile("app/blog/page.tsx", "")
	c.WriteFile("app/admin/page.tsx", "")

	out := c.MustRun("reconcile")
	assert.Contains(t, out, "2 pages (2 created by system)")

	page := c.MustRun("page", "/blog")
	assert.Contains(t, page, `"title": "Blog"`)

	c.MustFail("page", "/admin")
}

func Test_Page_Fails_When_Slug_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("page")

	assert.Contains(t, stderr, "usage: cms page <slug>")
}

func Test_Settings_Migrates_Legacy_Form_When_Read(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("data/settings.json", `{
		"siteName": "Acme",
		"formBuilder": {"contactForm": [{"id": "email", "label": "Email", "type": "email", "required": true}]}
	}`)

	out := c.MustRun("forms")
	assert.Contains(t, out, cmsdb.LegacyFormID)
	assert.Contains(t, out, "/contact")

	settings := c.MustRun("settings")
	assert.Contains(t, settings, `"siteName": "Acme"`)
}

func Test_User_Lifecycle_When_Driven_From_CLI(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	id := c.MustRun("user-add", "--name", "Ada", "--email", "ada@example.test", "--password", "s3cret!", "--role", "admin")
	require.NotEmpty(t, id)

	users := c.MustRun("users")
	assert.Contains(t, users, "ada@example.test")
	assert.Contains(t, users, "admin")
	assert.NotContains(t, users, "s3cret!")

	token := c.MustRun("reset-token", "ada@example.test")
	require.Len(t, token, 64)

	out := c.MustRun("reset", token, "--password", "n3w-pass")
	assert.Contains(t, out, "password updated for ada@example.test")

	stderr := c.MustFail("reset", token, "--password", "again")
	assert.Contains(t, stderr, "invalid or expired token")

	stderr = c.MustFail("2fa", id, "on")
	assert.Contains(t, stderr, "error:")

	out = c.MustRun("2fa", id, "on", "--secret", "JBSWY3DPEHPK3PXP")
	assert.Contains(t, out, "2fa on for ada@example.test")

	var stored []cmsdb.User
	c.ReadJSON("users.json", &stored)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].TwoFAEnabled)
	assert.True(t, cmsdb.VerifyPassword(stored[0].PasswordHash, "n3w-pass"))
}

func Test_UserAdd_Fails_When_Required_Flag_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("user-add", "--name", "Ada")

	assert.Contains(t, stderr, "required flag not set: --email")
}

func Test_Jobs_And_Submissions_Print_Empty_When_Store_Empty(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	assert.Equal(t, "ID  TITLE  LOCATION  VISIBLE  APPLICANTS  CREATED", c.MustRun("jobs"))
	assert.Equal(t, "[]", c.MustRun("submissions", "--form", "contact_form_default"))
}

func Test_PrintConfig_Shows_Data_Dir_Override(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	out := c.MustRun("--data-dir", "elsewhere", "print-config")

	assert.Contains(t, out, "data_dir="+c.Dir+"/elsewhere")
	assert.Contains(t, out, "(defaults only)")
}

func Test_Shell_Dispatches_Lines_When_Input_Piped(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	input := strings.Join([]string{
		"user-add --name Ada --email ada@example.test --password pw",
		"",
		"users",
		"frobnicate",
		"user-add --name Bob --email bob@example.test --password pw --role editor",
		"users",
		"exit",
		"pages",
	}, "\n")

	stdout, stderr, code := c.RunWithInput(input, "shell")

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "unknown command: frobnicate")
	assert.Contains(t, stdout, "bob@example.test")
	assert.NotContains(t, stdout, "/privacy-policy", "lines after exit must not run")

	// The second user-add must see default role again, not a leftover flag.
	var stored []cmsdb.User
	c.ReadJSON("users.json", &stored)
	require.Len(t, stored, 2)
	assert.Equal(t, cmsdb.RoleViewer, stored[0].Role)
	assert.Equal(t, cmsdb.RoleEditor, stored[1].Role)
}
