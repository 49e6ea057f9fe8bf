package crawler

// JS snippets executed through the Driver. All row addressing goes
// through the same valid-row filter (rows exposing an action trigger),
// so indexes stay consistent between counting and clicking.

const jsValidRowCount = `() => {
	const rows = document.querySelectorAll('table tbody tr');
	let n = 0;
	rows.forEach(r => { if (r.querySelector('a.icone-trigger')) n++; });
	return n;
}`

const jsBodyText = `() => document.body ? document.body.innerText : ''`

const jsRowHTML = `(i) => {
	const rows = [...document.querySelectorAll('table tbody tr')]
		.filter(r => r.querySelector('a.icone-trigger'));
	const row = rows[i - 1];
	return row ? row.outerHTML : '';
}`

const jsClickTrigger = `(i, scroll) => {
	const rows = [...document.querySelectorAll('table tbody tr')]
		.filter(r => r.querySelector('a.icone-trigger'));
	const row = rows[i - 1];
	if (!row) return false;
	const btn = row.querySelector('a.icone-trigger');
	if (scroll) btn.scrollIntoView({block: 'center'});
	btn.click();
	return true;
}`

const jsPopupHTML = `() => {
	const pop = document.querySelector('div.popover');
	return pop ? pop.outerHTML : '';
}`

const jsDismissPopups = `() => {
	document.querySelectorAll('.popover').forEach(e => e.remove());
}`

const jsSetFilterDates = `(di, df) => {
	var a = document.getElementById('datainicio'),
	    b = document.getElementById('datafim');
	if (a) { a.value = di; a.dispatchEvent(new Event('change', {bubbles: true})); }
	if (b) { b.value = df; b.dispatchEvent(new Event('change', {bubbles: true})); }
}`

const jsClickFilter = `() => {
	var bs = document.querySelectorAll('button');
	for (var i = 0; i < bs.length; i++) {
		var t = bs[i].innerText.trim().toUpperCase();
		var img = bs[i].querySelector('img[src*="filtrar"]');
		if (t === 'FILTRAR' || img) { bs[i].click(); return true; }
	}
	return false;
}`

// Next-control selectors in priority order; disabled and hidden
// controls are skipped. Returning false is the pagination terminal
// signal.
const jsNextPage = `(set) => {
	var sels = [
		"a[href*='/" + set + "?pg='][title*='Próxima']",
		"a[data-original-title='Próxima']",
		"a[title='Próxima']",
		"li.active+li a"
	];
	for (var s = 0; s < sels.length; s++) {
		var els = document.querySelectorAll(sels[s]);
		for (var i = 0; i < els.length; i++) {
			var e = els[i];
			if (e.offsetParent === null) continue;
			var p = e.parentElement;
			if (p && p.classList.contains('disabled')) return false;
			e.click();
			return true;
		}
	}
	return false;
}`
