// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

// Default returns the built-in profile. Callers must run Validate before
// using it (Load does this).
func Default() *Profile {
	return &Profile{
		Categories: map[string]Category{
			"security_research": {
				Domains: []string{
					"redcanary.com", "specterops.io", "ired.team",
					"elastic.co", "crowdstrike.com", "mandiant.com",
					"thedfirreport.com",
				},
				QuerySuffix: "attack technique analysis",
				Targeted:    true,
				MinResults:  1,
			},
			"microsoft_docs": {
				Domains:     []string{"learn.microsoft.com", "techcommunity.microsoft.com"},
				QuerySuffix: "documentation",
				Targeted:    true,
				MinResults:  1,
			},
			"academic": {
				Domains:     []string{"arxiv.org", "usenix.org", "ieeexplore.ieee.org"},
				QuerySuffix: "paper",
				MinResults:  0,
			},
			"sigma_rules": {
				Domains:     []string{"github.com/SigmaHQ/sigma", "detection.fyi"},
				QuerySuffix: "sigma detection rule",
				Targeted:    true,
				MinResults:  1,
			},
			"atomic_tests": {
				Domains:    []string{"github.com/redcanaryco/atomic-red-team"},
				MinResults: 1,
			},
			"attack_citations": {
				MinResults: 1,
			},
			"existing_reports": {
				MinResults: 0,
			},
			"community": {
				Domains:     []string{"medium.com", "infosecwriteups.com"},
				QuerySuffix: "writeup",
				MinResults:  0,
			},
		},

		DomainTiers: map[string]Tier{
			"attack.mitre.org":    TierHigh,
			"learn.microsoft.com": TierHigh,
			"github.com":          TierHigh,
			"redcanary.com":       TierHigh,
			"specterops.io":       TierHigh,
			"elastic.co":          TierHigh,
			"crowdstrike.com":     TierHigh,
			"mandiant.com":        TierHigh,
			"thedfirreport.com":   TierHigh,
			"usenix.org":          TierHigh,

			"techcommunity.microsoft.com": TierMedium,
			"medium.com":                  TierMedium,
			"infosecwriteups.com":         TierMedium,
			"splunk.com":                  TierMedium,
			"trendmicro.com":              TierMedium,
			"arxiv.org":                   TierMedium,
			"ieeexplore.ieee.org":         TierMedium,
			"detection.fyi":               TierMedium,
			"ired.team":                   TierMedium,
		},

		Noise: []NoisePattern{
			{Category: "api_reference", Pattern: `(?i)\b(api|class|method|interface)\s+reference\b`, Penalty: -15},
			{Category: "marketing", Pattern: `(?i)\b(request a demo|free trial|contact sales|buy now|pricing plans)\b`, Penalty: -20},
			{Category: "login_wall", Pattern: `(?i)\b(sign in to continue|create a free account|subscribe to (read|continue))\b`, Penalty: -15},
			{Category: "job_listing", Pattern: `(?i)\b(apply now|job description|we('| a)re hiring)\b`, Penalty: -20},
			{Category: "release_notes", Pattern: `(?i)\b(release notes|changelog|what'?s new in)\b`, Penalty: -10},
			{Category: "forum_thread", Pattern: `(?i)(/forums?/|/thread/|viewtopic\.php)`, Penalty: -10},
			{Category: "tag_index", Pattern: `(?i)(/tags?/|/category/|/archives?/)`, Penalty: -10},
		},

		Weights: Weights{
			TitleID:       30,
			TitleName:     25,
			SnippetID:     15,
			SnippetName:   10,
			URLPathID:     10,
			CitedDomain:   10,
			TierHigh:      15,
			TierMedium:    5,
			DepthLongForm: 10,
			DepthStandard: 5,
			CodeBlocks:    5,
			ManyMarkers:   10,
			SomeMarkers:   5,
		},

		Cutoffs:  Cutoffs{Strong: 60, Likely: 40, Possible: 25},
		MinScore: 25,

		MarkerPatterns: map[string][]string{
			"event_ids": {
				`(?i)(?:Event\s*(?:ID)?[\s:]*(\d{4})|Sysmon\s+(?:Event\s+)?(\d{1,2}))`,
			},
			"processes": {
				`\b([a-zA-Z][\w-]{1,30}\.exe)\b`,
			},
			"registry": {
				`(?i)\b(HK(?:LM|CU|CR|U|CC|EY_[A-Z_]+)\\[^\s,)]{5,})`,
			},
			"apis": {
				`\b((?:Nt|Zw|Rtl|Ldr|Crypt|Reg|Virtual|Create|Open|Write|Read|Set|Get|Query|Enum|Load|Map|Queue)[A-Z][a-zA-Z]{3,})\b`,
				`\b(System\.[A-Z][\w.]{5,})\b`,
			},
			"network": {
				`\b(?:port|Port)\s+(\d{2,5})\b`,
				`(?i)\b(RPC|LDAP|Kerberos|NTLM|SMB|WinRM|DCOM|WMI|HTTPS?|DNS|SSH|RDP)\b`,
			},
			"filepaths": {
				`(?:[A-Z]:\\[^\s,)]{5,}|%[A-Za-z]+%\\[^\s,)]{5,})`,
			},
			"query_syntax": {
				`(?m)^\s*(title|logsource|detection|condition)\s*:`,
				`(?i)\b(SecurityEvent|DeviceProcessEvents|SigninLogs)\s*\|`,
				`(?i)\b(index\s*=|sourcetype\s*=|EventCode\s*=)`,
				`(?m)^\s*rule\s+\w+\s*\{`,
			},
		},

		ProcessNoise: []string{
			"setup.exe", "install.exe", "update.exe", "chrome.exe",
			"firefox.exe", "explorer.exe", "notepad.exe", "calc.exe",
			"msiexec.exe", "consent.exe", "dllhost.exe",
		},

		ThreatActorPattern: `(?i)\b(APT\d+|UNC\d+|FIN\d+|Lazarus|Turla|Hafnium|Nobelium|Cozy Bear|Fancy Bear)\b`,

		EmptyFloor:   50,
		LowThreshold: 150,

		JSRenderedDomains: []string{"twitter.com", "x.com", "bsky.app"},

		Sources: Sources{
			SearchBaseURL: "https://html.duckduckgo.com/html/",
			AttackBaseURL: "https://attack.mitre.org",
			ReportsRepo:   "tired-labs/techniques",
			ReportsBranch: "main",
			ReportsPath:   "reports",
			AtomicsRepo:   "redcanaryco/atomic-red-team",
			AtomicsBranch: "master",
			Feeds: []string{
				"https://redcanary.com/feed/",
				"https://www.elastic.co/security-labs/rss/feed.xml",
				"https://posts.specterops.io/feed",
			},
		},
	}
}
