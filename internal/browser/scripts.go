package browser

// Element scripts run with the resolved node as their first argument.

func scrollIntoViewScript() string {
	return `(el) => {
		el.scrollIntoView({behavior: 'instant', block: 'center', inline: 'nearest'});
		const rect = el.getBoundingClientRect();
		return Math.round(window.scrollY + rect.top);
	}`
}

// occlusionScript reports whether the topmost element at the node's centre
// is something other than the node or one of its descendants.
func occlusionScript() string {
	return `(el) => {
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0) return false;

		const x = rect.left + rect.width / 2;
		const y = rect.top + rect.height / 2;
		if (x < 0 || y < 0 || x > window.innerWidth || y > window.innerHeight) return false;

		const top = document.elementFromPoint(x, y);
		return !!top && top !== el && !el.contains(top);
	}`
}

func programmaticClickScript() string {
	return `(el) => { el.click(); return true; }`
}
