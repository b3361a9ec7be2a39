// Package validation guards every configuration value that ends up on a
// command line against command injection and path traversal.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// Common validation errors.
var (
	ErrEmptyInput         = errors.New("input cannot be empty")
	ErrInvalidPackageName = errors.New("invalid package name")
	ErrInvalidUsername    = errors.New("invalid user name")
	ErrInvalidSiteName    = errors.New("invalid site name")
	ErrInvalidAppName     = errors.New("invalid app name")
	ErrInvalidBranch      = errors.New("invalid branch name")
	ErrInvalidRepo        = errors.New("invalid repository")
	ErrInvalidVersion     = errors.New("invalid runtime version")
	ErrInvalidPath        = errors.New("invalid path")
	ErrPathTraversal      = errors.New("path traversal detected")
	ErrCommandInjection   = errors.New("potential command injection detected")
	ErrInvalidHostname    = errors.New("invalid hostname")
	ErrInvalidPort        = errors.New("invalid port")
)

var (
	// Debian package names, e.g. "python3-dev", "libmariadb-dev", "g++".
	packageNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.+-]*$`)

	// POSIX portable user names as accepted by adduser's default NAME_REGEX.
	usernameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]*$`)

	// Site names are DNS names; a single label such as "site1" is allowed.
	siteLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

	// Frappe apps are Python package names.
	appNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	branchRegex = regexp.MustCompile(`^[a-zA-Z0-9/_.-]+$`)

	repoURLRegexes = []*regexp.Regexp{
		regexp.MustCompile(`^https://[a-zA-Z0-9.-]+(:[0-9]+)?/[a-zA-Z0-9_./-]+(?:\.git)?$`),
		regexp.MustCompile(`^git@[a-zA-Z0-9.-]+:[a-zA-Z0-9_./-]+(?:\.git)?$`),
		regexp.MustCompile(`^ssh://[a-zA-Z0-9@.-]+(:[0-9]+)?/[a-zA-Z0-9_./-]+(?:\.git)?$`),
		regexp.MustCompile(`^/[a-zA-Z0-9_./-]+$`),
	}

	hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*$`)

	shellMeta = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\\", "'", "\"", "\n", "\r"}
)

// ValidatePackageName validates an OS package name.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 128 {
		return fmt.Errorf("%w: name too long (max 128 characters)", ErrInvalidPackageName)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPackageName, name)
	}
	return nil
}

// ValidateUsername validates an OS account name.
func ValidateUsername(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 32 {
		return fmt.Errorf("%w: name too long (max 32 characters)", ErrInvalidUsername)
	}
	if !usernameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q must start with a lowercase letter or underscore", ErrInvalidUsername, name)
	}
	if name == "root" {
		return fmt.Errorf("%w: the application must not run as root", ErrInvalidUsername)
	}
	return nil
}

// ValidateSiteName validates a site name, which doubles as its host name.
func ValidateSiteName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 253 {
		return fmt.Errorf("%w: name too long", ErrInvalidSiteName)
	}
	if containsShellMeta(name) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, name)
	}
	for _, label := range strings.Split(name, ".") {
		if len(label) > 63 || !siteLabelRegex.MatchString(label) {
			return fmt.Errorf("%w: %q is not a valid DNS name", ErrInvalidSiteName, name)
		}
	}
	return nil
}

// ValidateAppName validates a Frappe application name.
func ValidateAppName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 100 {
		return fmt.Errorf("%w: name too long", ErrInvalidAppName)
	}
	if !appNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q must be a lowercase Python identifier", ErrInvalidAppName, name)
	}
	return nil
}

// ValidateBranch validates a git branch name. Empty selects the default branch.
func ValidateBranch(branch string) error {
	if branch == "" {
		return nil
	}
	if len(branch) > 255 {
		return fmt.Errorf("%w: name too long (max 255 characters)", ErrInvalidBranch)
	}
	if strings.ContainsRune(branch, '\x00') {
		return fmt.Errorf("%w: contains null byte", ErrInvalidBranch)
	}
	if containsShellMeta(branch) {
		return fmt.Errorf("%w: branch %q contains shell metacharacters", ErrCommandInjection, branch)
	}
	if !branchRegex.MatchString(branch) || strings.HasPrefix(branch, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidBranch, branch)
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("%w: cannot contain '..'", ErrInvalidBranch)
	}
	return nil
}

// ValidateRepo validates an app source repository. Empty lets bench resolve the app name.
func ValidateRepo(repo string) error {
	if repo == "" {
		return nil
	}
	if len(repo) > 2048 {
		return fmt.Errorf("%w: too long", ErrInvalidRepo)
	}
	if containsShellMeta(repo) {
		return fmt.Errorf("%w: repository %q contains shell metacharacters", ErrCommandInjection, repo)
	}
	for _, re := range repoURLRegexes {
		if re.MatchString(repo) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q must be an HTTPS or SSH git URL or an absolute path", ErrInvalidRepo, repo)
}

// ValidateRuntimeVersion validates a Node.js version such as "18", "v20.11" or "lts".
func ValidateRuntimeVersion(version string) error {
	if version == "" {
		return ErrEmptyInput
	}
	if version == "lts" || version == "node" {
		return nil
	}
	if !semver.IsValid(CanonicalVersion(version)) || semver.Prerelease(CanonicalVersion(version)) != "" {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return nil
}

// CanonicalVersion prefixes a bare version with "v" the way semver expects.
func CanonicalVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// ValidatePath validates an absolute path on the target host.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q must be absolute", ErrInvalidPath, path)
	}
	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}
	if containsShellMeta(path) || strings.Contains(path, " ") {
		return fmt.Errorf("%w: path %q contains shell metacharacters", ErrCommandInjection, path)
	}
	return nil
}

// ValidatePathWithBase validates that path stays within basePath.
func ValidatePathWithBase(path, basePath string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	cleanPath := filepath.Clean(path)
	cleanBase := filepath.Clean(basePath)
	if cleanPath != cleanBase && !strings.HasPrefix(cleanPath, cleanBase+"/") {
		return fmt.Errorf("%w: path %q escapes base directory %q", ErrPathTraversal, path, basePath)
	}
	return nil
}

// ValidateHostname validates a database or SSH host name or IP address.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return ErrEmptyInput
	}
	if len(hostname) > 253 {
		return fmt.Errorf("%w: hostname too long", ErrInvalidHostname)
	}
	if containsShellMeta(hostname) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, hostname)
	}
	if !hostnameRegex.MatchString(hostname) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidHostname, hostname)
	}
	return nil
}

// ValidatePort validates a TCP port.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %d is outside 1-65535", ErrInvalidPort, port)
	}
	return nil
}

// ValidateSecret rejects secrets that would break line-oriented tools such as chpasswd.
func ValidateSecret(secret string) error {
	if secret == "" {
		return ErrEmptyInput
	}
	if strings.ContainsAny(secret, "\n\r\x00") {
		return fmt.Errorf("%w: secret contains a line break or null byte", ErrCommandInjection)
	}
	return nil
}

func containsShellMeta(s string) bool {
	for _, m := range shellMeta {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func containsPathTraversal(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
